// Package inventorytest provides an in-memory implementation of the inventory
// repositories for service tests. Transactions are serialized and rolled back
// by snapshot, standing in for row locks and PostgreSQL rollback.
package inventorytest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/numerator"
	"storehouse/internal/domain/inventory"
)

// AuditRecord is one captured audit call.
type AuditRecord struct {
	EntityType string
	EntityID   id.ID
	Action     string
	ActorID    id.ID
	Changes    map[string]any
}

type locationKey struct {
	ItemID id.ID
	AreaID id.ID
}

type state struct {
	items     map[inventory.ItemKind]map[id.ID]inventory.Item
	areas     map[id.ID]inventory.StorageArea
	users     map[id.ID]inventory.User
	providers map[id.ID]inventory.Provider
	locations map[inventory.ItemKind]map[locationKey]inventory.StockLocation
	receipts  map[inventory.ReceiptKind]map[id.ID]inventory.Receipt
	details   map[inventory.ReceiptKind][]inventory.ReceiptDetail
	counters  map[string]int64
	audit     []AuditRecord
}

func newState() *state {
	s := &state{
		items:     make(map[inventory.ItemKind]map[id.ID]inventory.Item),
		areas:     make(map[id.ID]inventory.StorageArea),
		users:     make(map[id.ID]inventory.User),
		providers: make(map[id.ID]inventory.Provider),
		locations: make(map[inventory.ItemKind]map[locationKey]inventory.StockLocation),
		receipts:  make(map[inventory.ReceiptKind]map[id.ID]inventory.Receipt),
		details:   make(map[inventory.ReceiptKind][]inventory.ReceiptDetail),
		counters:  make(map[string]int64),
	}
	for _, k := range []inventory.ItemKind{inventory.KindProduct, inventory.KindMaterial} {
		s.items[k] = make(map[id.ID]inventory.Item)
		s.locations[k] = make(map[locationKey]inventory.StockLocation)
	}
	for _, rk := range inventory.ReceiptKinds {
		s.receipts[rk] = make(map[id.ID]inventory.Receipt)
	}
	return s
}

func (s *state) clone() *state {
	c := newState()
	for k, m := range s.items {
		for i, v := range m {
			c.items[k][i] = v
		}
	}
	for i, v := range s.areas {
		c.areas[i] = v
	}
	for i, v := range s.users {
		c.users[i] = v
	}
	for i, v := range s.providers {
		c.providers[i] = v
	}
	for k, m := range s.locations {
		for key, v := range m {
			c.locations[k][key] = v
		}
	}
	for k, m := range s.receipts {
		for i, v := range m {
			c.receipts[k][i] = v
		}
	}
	for k, d := range s.details {
		c.details[k] = append([]inventory.ReceiptDetail(nil), d...)
	}
	for p, v := range s.counters {
		c.counters[p] = v
	}
	c.audit = append([]AuditRecord(nil), s.audit...)
	return c
}

type txKey struct{}

// Store implements every inventory repository, the code generator, the audit
// logger and tx.Manager on top of process memory.
type Store struct {
	txMu  sync.Mutex
	mu    sync.Mutex
	state *state
	fail  map[string]error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{state: newState(), fail: make(map[string]error)}
}

// Repositories returns the store wired as inventory repositories.
func (s *Store) Repositories() inventory.Repositories {
	return inventory.Repositories{
		Items:      s,
		Ledger:     s,
		Receipts:   s,
		References: s,
	}
}

// FailOn makes the named operation return err until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

func (s *Store) injected(op string) error {
	return s.fail[op]
}

// RunInTransaction serializes callers and restores the previous state when fn fails.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// --- fixtures ---

// AddStorageArea registers an active storage area of the given type.
func (s *Store) AddStorageArea(areaType inventory.AreaType) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := inventory.StorageArea{ID: id.New(), Name: "area", Type: areaType}
	s.state.areas[a.ID] = a
	return a.ID
}

// DeleteStorageArea soft-deletes an area.
func (s *Store) DeleteStorageArea(areaID id.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.state.areas[areaID]
	a.Deleted = true
	s.state.areas[areaID] = a
}

// AddUser registers a user.
func (s *Store) AddUser(active bool) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := inventory.User{ID: id.New(), Name: "user", IsActive: active}
	s.state.users[u.ID] = u
	return u.ID
}

// AddProvider registers a provider.
func (s *Store) AddProvider() id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := inventory.Provider{ID: id.New(), Name: "provider"}
	s.state.providers[p.ID] = p
	return p.ID
}

// AddItem registers a product or material with an empty mirror.
func (s *Store) AddItem(kind inventory.ItemKind) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := inventory.Item{ID: id.New(), Name: string(kind)}
	s.state.items[kind][it.ID] = it
	return it.ID
}

// Stock places qty of an item in an area, keeping the mirror in sync.
func (s *Store) Stock(kind inventory.ItemKind, itemID, areaID id.ID, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := locationKey{ItemID: itemID, AreaID: areaID}
	loc, ok := s.state.locations[kind][key]
	if !ok {
		loc = inventory.StockLocation{ID: id.New(), ItemID: itemID, StorageAreaID: areaID}
	}
	loc.Quantity += qty
	s.state.locations[kind][key] = loc
	it := s.state.items[kind][itemID]
	it.QuantityAvailable += qty
	s.state.items[kind][itemID] = it
}

// SetMirror overwrites an item's aggregate quantity, simulating drift.
func (s *Store) SetMirror(kind inventory.ItemKind, itemID id.ID, qty int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.state.items[kind][itemID]
	it.QuantityAvailable = qty
	s.state.items[kind][itemID] = it
}

// --- inspection ---

// Location returns the ledger row for a pair.
func (s *Store) Location(kind inventory.ItemKind, itemID, areaID id.ID) (inventory.StockLocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc, ok := s.state.locations[kind][locationKey{ItemID: itemID, AreaID: areaID}]
	return loc, ok
}

// LocationCount returns the number of ledger rows of a kind.
func (s *Store) LocationCount(kind inventory.ItemKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.locations[kind])
}

// Item returns an item as stored.
func (s *Store) Item(kind inventory.ItemKind, itemID id.ID) inventory.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.items[kind][itemID]
}

// LedgerSum sums the active locations of an item.
func (s *Store) LedgerSum(kind inventory.ItemKind, itemID id.ID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(kind, itemID)
}

// ReceiptCount returns the number of headers of a family.
func (s *Store) ReceiptCount(kind inventory.ReceiptKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.receipts[kind])
}

// DetailCount returns the number of lines of a family.
func (s *Store) DetailCount(kind inventory.ReceiptKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.details[kind])
}

// Receipt returns a stored header.
func (s *Store) Receipt(kind inventory.ReceiptKind, receiptID id.ID) (inventory.Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.receipts[kind][receiptID]
	return r, ok
}

// AuditRecords returns the committed audit calls.
func (s *Store) AuditRecords() []AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditRecord(nil), s.state.audit...)
}

func (s *Store) sum(kind inventory.ItemKind, itemID id.ID) int64 {
	var total int64
	for _, loc := range s.state.locations[kind] {
		if loc.ItemID == itemID && !loc.Deleted {
			total += loc.Quantity
		}
	}
	return total
}

// --- ItemRepository ---

func (s *Store) GetItems(_ context.Context, kind inventory.ItemKind, ids []id.ID) (map[id.ID]inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.ID]inventory.Item, len(ids))
	for _, itemID := range ids {
		if it, ok := s.state.items[kind][itemID]; ok && !it.Deleted {
			out[itemID] = it
		}
	}
	return out, nil
}

func (s *Store) GetItem(_ context.Context, kind inventory.ItemKind, itemID id.ID) (*inventory.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.state.items[kind][itemID]
	if !ok {
		return nil, apperror.NewNotFound(string(kind), itemID)
	}
	return &it, nil
}

func (s *Store) LockItem(ctx context.Context, kind inventory.ItemKind, itemID id.ID) (*inventory.Item, error) {
	return s.GetItem(ctx, kind, itemID)
}

func (s *Store) AdjustQuantity(_ context.Context, kind inventory.ItemKind, itemID id.ID, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("AdjustQuantity"); err != nil {
		return err
	}
	it, ok := s.state.items[kind][itemID]
	if !ok {
		return apperror.NewNotFound(string(kind), itemID)
	}
	if delta > 0 && delta > math.MaxInt64-it.QuantityAvailable {
		return apperror.NewValidation("adjust " + string(kind) + " quantity: quantity out of range")
	}
	if it.QuantityAvailable+delta < 0 {
		return apperror.NewConflict(fmt.Sprintf("aggregate quantity of %s %s would become negative", kind, itemID))
	}
	it.QuantityAvailable += delta
	s.state.items[kind][itemID] = it
	return nil
}

func (s *Store) SetQuantity(_ context.Context, kind inventory.ItemKind, itemID id.ID, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it := s.state.items[kind][itemID]
	it.QuantityAvailable = quantity
	s.state.items[kind][itemID] = it
	return nil
}

func (s *Store) SetMinimumStockLevel(_ context.Context, productID id.ID, level int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.state.items[inventory.KindProduct][productID]
	if !ok {
		return apperror.NewNotFound("product", productID)
	}
	it.MinimumStockLevel = &level
	s.state.items[inventory.KindProduct][productID] = it
	return nil
}

// --- LedgerRepository ---

func (s *Store) LockLocations(_ context.Context, kind inventory.ItemKind, areaID id.ID, itemIDs []id.ID) (map[id.ID]inventory.StockLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.ID]inventory.StockLocation, len(itemIDs))
	for _, itemID := range itemIDs {
		loc, ok := s.state.locations[kind][locationKey{ItemID: itemID, AreaID: areaID}]
		if ok && !loc.Deleted {
			out[itemID] = loc
		}
	}
	return out, nil
}

func (s *Store) AddQuantity(_ context.Context, kind inventory.ItemKind, itemID, areaID id.ID, qty int64) (*inventory.StockLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("AddQuantity"); err != nil {
		return nil, err
	}
	key := locationKey{ItemID: itemID, AreaID: areaID}
	loc, ok := s.state.locations[kind][key]
	if !ok {
		loc = inventory.StockLocation{ID: id.New(), ItemID: itemID, StorageAreaID: areaID}
	} else if loc.Deleted {
		loc.Quantity = 0
	}
	if qty > math.MaxInt64-loc.Quantity {
		return nil, apperror.NewValidation("add " + string(kind) + " stock: quantity out of range")
	}
	loc.Deleted = false
	loc.Quantity += qty
	s.state.locations[kind][key] = loc
	return &loc, nil
}

func (s *Store) SubtractQuantity(_ context.Context, kind inventory.ItemKind, locationID id.ID, qty int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("SubtractQuantity"); err != nil {
		return err
	}
	for key, loc := range s.state.locations[kind] {
		if loc.ID != locationID {
			continue
		}
		if loc.Deleted || loc.Quantity < qty {
			return apperror.NewInsufficientStock([]apperror.StockShortage{{
				ItemKind:  string(kind),
				ItemID:    loc.ItemID.String(),
				Available: loc.Quantity,
				Requested: qty,
			}})
		}
		loc.Quantity -= qty
		s.state.locations[kind][key] = loc
		return nil
	}
	return apperror.NewNotFound("stock location", locationID)
}

func (s *Store) ListByItem(_ context.Context, kind inventory.ItemKind, itemID id.ID) ([]inventory.StockLocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.StockLocation
	for _, loc := range s.state.locations[kind] {
		if loc.ItemID == itemID && !loc.Deleted {
			out = append(out, loc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return id.Less(out[i].StorageAreaID, out[j].StorageAreaID)
	})
	return out, nil
}

func (s *Store) SumByItem(_ context.Context, kind inventory.ItemKind, itemID id.ID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sum(kind, itemID), nil
}

// --- ReceiptRepository ---

func (s *Store) Create(_ context.Context, r *inventory.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Create"); err != nil {
		return err
	}
	for _, existing := range s.state.receipts[r.Kind] {
		if existing.Code == r.Code {
			return fmt.Errorf("duplicate receipt code %s", r.Code)
		}
	}
	stored := *r
	stored.Details = nil
	s.state.receipts[r.Kind][r.ID] = stored
	return nil
}

func (s *Store) SaveDetails(_ context.Context, kind inventory.ReceiptKind, details []inventory.ReceiptDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("SaveDetails"); err != nil {
		return err
	}
	for _, d := range details {
		if _, ok := s.state.receipts[kind][d.ReceiptID]; !ok {
			return fmt.Errorf("receipt %s does not exist", d.ReceiptID)
		}
	}
	s.state.details[kind] = append(s.state.details[kind], details...)
	return nil
}

func (s *Store) GetByID(_ context.Context, kind inventory.ReceiptKind, receiptID id.ID) (*inventory.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.receipts[kind][receiptID]
	if !ok {
		return nil, apperror.NewNotFound(kind.Collection(), receiptID)
	}
	r.Kind = kind
	return &r, nil
}

func (s *Store) GetDetails(_ context.Context, kind inventory.ReceiptKind, receiptID id.ID) ([]inventory.ReceiptDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []inventory.ReceiptDetail
	for _, d := range s.state.details[kind] {
		if d.ReceiptID == receiptID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Store) TransitionStatus(_ context.Context, kind inventory.ReceiptKind, receiptID id.ID, from, to inventory.Status, approver id.ID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.receipts[kind][receiptID]
	if !ok || r.Deleted || r.Status != from {
		return false, nil
	}
	r.Status = to
	r.ApprovedBy = &approver
	r.UpdatedAt = time.Now().UTC()
	s.state.receipts[kind][receiptID] = r
	return true, nil
}

func (s *Store) SoftDelete(_ context.Context, kind inventory.ReceiptKind, receiptID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.receipts[kind][receiptID]
	if !ok {
		return apperror.NewNotFound(kind.Collection(), receiptID)
	}
	r.Deleted = true
	s.state.receipts[kind][receiptID] = r
	return nil
}

// --- ReferenceRepository ---

func (s *Store) GetStorageArea(_ context.Context, areaID id.ID) (*inventory.StorageArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.state.areas[areaID]
	if !ok {
		return nil, apperror.NewNotFound("storage area", areaID)
	}
	return &a, nil
}

func (s *Store) GetUser(_ context.Context, userID id.ID) (*inventory.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return &u, nil
}

func (s *Store) GetProvider(_ context.Context, providerID id.ID) (*inventory.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.providers[providerID]
	if !ok {
		return nil, apperror.NewNotFound("provider", providerID)
	}
	return &p, nil
}

// --- numerator.Generator ---

// NextCode keeps one counter per prefix inside the transactional state,
// so a rolled back receipt releases its number.
func (s *Store) NextCode(_ context.Context, series numerator.Series, at time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := numerator.BuildPrefix(series, at)
	s.state.counters[prefix]++
	return numerator.FormatCode(prefix, s.state.counters[prefix]), nil
}

// --- AuditLogger ---

func (s *Store) LogChange(_ context.Context, entityType string, entityID id.ID, action string, actorID id.ID, changes map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("LogChange"); err != nil {
		return err
	}
	s.state.audit = append(s.state.audit, AuditRecord{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Changes:    changes,
	})
	return nil
}

var (
	_ inventory.ItemRepository      = (*Store)(nil)
	_ inventory.LedgerRepository    = (*Store)(nil)
	_ inventory.ReceiptRepository   = (*Store)(nil)
	_ inventory.ReferenceRepository = (*Store)(nil)
	_ inventory.AuditLogger         = (*Store)(nil)
	_ numerator.Generator           = (*Store)(nil)
)
