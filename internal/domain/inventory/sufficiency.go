package inventory

import (
	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
)

// CheckSufficiency verifies that every export line can be served from the
// given locations of one storage area. Lines for the same item are summed.
// All lines are inspected before failing so that the error lists every
// shortfall.
func CheckSufficiency(kind ItemKind, lines []ExportLine, locations map[id.ID]StockLocation) error {
	return checkDemand(kind, exportDemand(lines), locations)
}

func checkDemand(kind ItemKind, wanted []demand, locations map[id.ID]StockLocation) error {
	var shortages []apperror.StockShortage
	for _, d := range wanted {
		var available int64
		if loc, ok := locations[d.ItemID]; ok && !loc.Deleted {
			available = loc.Quantity
		}
		if d.Quantity > available {
			shortages = append(shortages, apperror.StockShortage{
				ItemKind:  string(kind),
				ItemID:    d.ItemID.String(),
				Available: available,
				Requested: d.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return apperror.NewInsufficientStock(shortages)
	}
	return nil
}
