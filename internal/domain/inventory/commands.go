package inventory

import (
	"fmt"
	"math"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/types"
)

// ImportLine is one requested line of an import receipt.
type ImportLine struct {
	ItemID   id.ID
	Quantity int64

	// Price is required on NORMAL material imports and ignored otherwise.
	Price *types.Money

	// MinimumStockLevel optionally updates the product's threshold.
	MinimumStockLevel *int64
}

// ExportLine is one requested line of an export receipt.
type ExportLine struct {
	ItemID   id.ID
	Quantity int64
}

// ImportMaterialsCommand creates a material import receipt.
type ImportMaterialsCommand struct {
	Type          ReceiptType
	ProviderID    *id.ID
	StorageAreaID id.ID
	ReceiverID    id.ID
	Note          string
	Lines         []ImportLine
}

// Validate checks the command shape without touching storage.
func (c *ImportMaterialsCommand) Validate() error {
	switch c.Type {
	case ReceiptTypeNormal, ReceiptTypeReturn:
	default:
		return apperror.NewValidation("type must be NORMAL or RETURN").
			WithDetail("field", "type")
	}
	if id.IsNil(c.StorageAreaID) {
		return required("material_storage_location_id")
	}
	if id.IsNil(c.ReceiverID) {
		return required("receiver_id")
	}
	if c.Type == ReceiptTypeNormal && (c.ProviderID == nil || id.IsNil(*c.ProviderID)) {
		return required("provider_id")
	}
	if err := validateImportLines("materials", c.Lines); err != nil {
		return err
	}
	if c.Type == ReceiptTypeNormal {
		for i, line := range c.Lines {
			if line.Price == nil {
				return apperror.NewValidation(fmt.Sprintf("materials[%d]: price is required for NORMAL imports", i)).
					WithDetail("field", fmt.Sprintf("materials[%d].price", i))
			}
			if line.Price.IsNegative() {
				return apperror.NewValidation(fmt.Sprintf("materials[%d]: price must not be negative", i)).
					WithDetail("field", fmt.Sprintf("materials[%d].price", i))
			}
		}
	}
	return nil
}

// ImportProductsCommand creates a product import receipt.
type ImportProductsCommand struct {
	StorageAreaID id.ID
	ReceiverID    id.ID
	Note          string
	Lines         []ImportLine
}

// Validate checks the command shape without touching storage.
func (c *ImportProductsCommand) Validate() error {
	if id.IsNil(c.StorageAreaID) {
		return required("storage_area_id")
	}
	if id.IsNil(c.ReceiverID) {
		return required("receiver_id")
	}
	if err := validateImportLines("products", c.Lines); err != nil {
		return err
	}
	for i, line := range c.Lines {
		if line.MinimumStockLevel != nil && *line.MinimumStockLevel < 0 {
			return apperror.NewValidation(fmt.Sprintf("products[%d]: minimum_stock_level must not be negative", i)).
				WithDetail("field", fmt.Sprintf("products[%d].minimum_stock_level", i))
		}
	}
	return nil
}

// ExportMaterialsCommand creates a material export receipt.
type ExportMaterialsCommand struct {
	StorageAreaID id.ID
	Note          string
	Lines         []ExportLine
}

// Validate checks the command shape without touching storage.
func (c *ExportMaterialsCommand) Validate() error {
	if id.IsNil(c.StorageAreaID) {
		return required("storage_area_id")
	}
	return validateExportLines("materials", c.Lines)
}

// ExportProductsCommand creates a product export receipt.
type ExportProductsCommand struct {
	StorageAreaID id.ID
	ReceiverID    id.ID
	Note          string
	Lines         []ExportLine
}

// Validate checks the command shape without touching storage.
func (c *ExportProductsCommand) Validate() error {
	if id.IsNil(c.StorageAreaID) {
		return required("storage_area_id")
	}
	if id.IsNil(c.ReceiverID) {
		return required("receiver_id")
	}
	return validateExportLines("products", c.Lines)
}

func validateImportLines(field string, lines []ImportLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation(field + " must contain at least one line").
			WithDetail("field", field)
	}
	totals := make(map[id.ID]int64, len(lines))
	for i, line := range lines {
		if err := validateLine(field, i, line.ItemID, line.Quantity, totals); err != nil {
			return err
		}
	}
	return nil
}

func validateExportLines(field string, lines []ExportLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation(field + " must contain at least one line").
			WithDetail("field", field)
	}
	totals := make(map[id.ID]int64, len(lines))
	for i, line := range lines {
		if err := validateLine(field, i, line.ItemID, line.Quantity, totals); err != nil {
			return err
		}
	}
	return nil
}

// validateLine also keeps the running total per item in totals; duplicate
// lines are summed later and the sum must stay representable.
func validateLine(field string, i int, itemID id.ID, quantity int64, totals map[id.ID]int64) error {
	if id.IsNil(itemID) {
		return required(fmt.Sprintf("%s[%d].id", field, i))
	}
	if quantity <= 0 {
		return apperror.NewValidation(fmt.Sprintf("%s[%d]: quantity must be positive", field, i)).
			WithDetail("field", fmt.Sprintf("%s[%d].quantity", field, i))
	}
	total, ok := addQuantity(totals[itemID], quantity)
	if !ok {
		return apperror.NewValidation(fmt.Sprintf("%s[%d]: total quantity of %s is too large", field, i, itemID)).
			WithDetail("field", fmt.Sprintf("%s[%d].quantity", field, i))
	}
	totals[itemID] = total
	return nil
}

// addQuantity adds two non-negative quantities, reporting overflow.
func addQuantity(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return math.MaxInt64, false
	}
	return a + b, true
}

func required(field string) *apperror.AppError {
	return apperror.NewValidation(field + " is required").WithDetail("field", field)
}

// demand is the total requested quantity of one item.
type demand struct {
	ItemID   id.ID
	Quantity int64
}

// aggregate sums quantities per item, keeping the order of first appearance.
// A sum that overflows sticks at math.MaxInt64, which no location can cover.
func aggregate(itemIDs []id.ID, quantities []int64) []demand {
	index := make(map[id.ID]int, len(itemIDs))
	out := make([]demand, 0, len(itemIDs))
	for i, itemID := range itemIDs {
		if pos, ok := index[itemID]; ok {
			out[pos].Quantity, _ = addQuantity(out[pos].Quantity, quantities[i])
			continue
		}
		index[itemID] = len(out)
		out = append(out, demand{ItemID: itemID, Quantity: quantities[i]})
	}
	return out
}

func importDemand(lines []ImportLine) []demand {
	ids := make([]id.ID, len(lines))
	qty := make([]int64, len(lines))
	for i, l := range lines {
		ids[i], qty[i] = l.ItemID, l.Quantity
	}
	return aggregate(ids, qty)
}

func exportDemand(lines []ExportLine) []demand {
	ids := make([]id.ID, len(lines))
	qty := make([]int64, len(lines))
	for i, l := range lines {
		ids[i], qty[i] = l.ItemID, l.Quantity
	}
	return aggregate(ids, qty)
}

func demandIDs(d []demand) []id.ID {
	ids := make([]id.ID, len(d))
	for i := range d {
		ids[i] = d[i].ItemID
	}
	return ids
}
