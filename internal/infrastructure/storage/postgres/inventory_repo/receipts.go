package inventory_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/storage/postgres"
)

var _ inventory.ReceiptRepository = (*ReceiptRepo)(nil)

var (
	receiptColumns = postgres.ExtractDBColumns[inventory.Receipt]()
	detailColumns  = postgres.ExtractDBColumns[inventory.ReceiptDetail]()
)

// ReceiptRepo persists the four receipt families. Every family has a header
// table named after its collection and a details table with the same shape.
type ReceiptRepo struct {
	base
	now func() time.Time
}

// NewReceiptRepo creates a new receipt repository.
func NewReceiptRepo(txManager *postgres.TxManager) *ReceiptRepo {
	return &ReceiptRepo{
		base: base{txManager: txManager},
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *ReceiptRepo) Create(ctx context.Context, receipt *inventory.Receipt) error {
	q := builder().Insert(receipt.Kind.Collection()).SetMap(postgres.StructToMap(receipt))
	if _, err := r.exec(ctx, q); err != nil {
		return mapWriteError(err, "receipt "+receipt.Code)
	}
	return nil
}

func insertDetailsQuery(kind inventory.ReceiptKind, details []inventory.ReceiptDetail) squirrel.InsertBuilder {
	q := builder().Insert(kind.DetailsTable()).Columns(detailColumns...)
	for i := range details {
		q = q.Values(postgres.ValuesOf(&details[i], detailColumns)...)
	}
	return q
}

func (r *ReceiptRepo) SaveDetails(ctx context.Context, kind inventory.ReceiptKind, details []inventory.ReceiptDetail) error {
	if len(details) == 0 {
		return nil
	}
	if _, err := r.exec(ctx, insertDetailsQuery(kind, details)); err != nil {
		return mapWriteError(err, kind.Collection()+" details")
	}
	return nil
}

func (r *ReceiptRepo) GetByID(ctx context.Context, kind inventory.ReceiptKind, receiptID id.ID) (*inventory.Receipt, error) {
	q := builder().Select(receiptColumns...).
		From(kind.Collection()).
		Where("id = ?", receiptID)

	var receipt inventory.Receipt
	if err := r.get(ctx, &receipt, q); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(kind.Collection(), receiptID)
		}
		return nil, fmt.Errorf("get %s: %w", kind.Collection(), err)
	}
	receipt.Kind = kind
	return &receipt, nil
}

func (r *ReceiptRepo) GetDetails(ctx context.Context, kind inventory.ReceiptKind, receiptID id.ID) ([]inventory.ReceiptDetail, error) {
	// UUIDv7 ids keep insertion order.
	q := builder().Select(detailColumns...).
		From(kind.DetailsTable()).
		Where("receipt_id = ?", receiptID).
		OrderBy("id")

	var details []inventory.ReceiptDetail
	if err := r.selectAll(ctx, &details, q); err != nil {
		return nil, fmt.Errorf("get %s: %w", kind.DetailsTable(), err)
	}
	return details, nil
}

// transitionQuery is a compare-and-set on status; it never touches deleted receipts.
func transitionQuery(kind inventory.ReceiptKind, receiptID id.ID, from, to inventory.Status, approver id.ID, at time.Time) squirrel.UpdateBuilder {
	return builder().Update(kind.Collection()).
		SetMap(map[string]any{
			"status":      to,
			"approved_by": approver,
			"updated_at":  at,
		}).
		Where("id = ?", receiptID).
		Where("status = ?", from).
		Where("deleted = false")
}

func (r *ReceiptRepo) TransitionStatus(ctx context.Context, kind inventory.ReceiptKind, receiptID id.ID, from, to inventory.Status, approver id.ID) (bool, error) {
	tag, err := r.exec(ctx, transitionQuery(kind, receiptID, from, to, approver, r.now()))
	if err != nil {
		return false, fmt.Errorf("transition %s: %w", kind.Collection(), err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ReceiptRepo) SoftDelete(ctx context.Context, kind inventory.ReceiptKind, receiptID id.ID) error {
	q := builder().Update(kind.Collection()).
		Set("deleted", true).
		Set("updated_at", r.now()).
		Where("id = ?", receiptID)
	tag, err := r.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind.Collection(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound(kind.Collection(), receiptID)
	}
	return nil
}
