package inventory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/numerator"
	"storehouse/internal/core/types"
)

func TestReceiptKind_Naming(t *testing.T) {
	tests := []struct {
		kind       ReceiptKind
		series     numerator.Series
		collection string
		item       ItemKind
		dir        Direction
	}{
		{MaterialImport, "IMPM", "material_import_receipts", KindMaterial, DirectionImport},
		{ProductImport, "IMPP", "product_import_receipts", KindProduct, DirectionImport},
		{MaterialExport, "EXPM", "material_export_receipts", KindMaterial, DirectionExport},
		{ProductExport, "EXPP", "product_export_receipts", KindProduct, DirectionExport},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.series, tt.kind.Series())
			assert.Equal(t, tt.collection, tt.kind.Collection())
			assert.Equal(t, tt.item, tt.kind.ItemKind())
			assert.Equal(t, tt.dir, tt.kind.Direction())

			parsed, ok := ParseCollection(tt.collection)
			require.True(t, ok)
			assert.Equal(t, tt.kind, parsed)
		})
	}

	_, ok := ParseCollection("invoices")
	assert.False(t, ok)
}

func TestCheckSufficiency(t *testing.T) {
	area := id.New()
	a, b := id.New(), id.New()
	locations := map[id.ID]StockLocation{
		a: {ID: id.New(), ItemID: a, StorageAreaID: area, Quantity: 5},
		b: {ID: id.New(), ItemID: b, StorageAreaID: area, Quantity: 3, Deleted: true},
	}

	assert.NoError(t, CheckSufficiency(KindProduct, []ExportLine{{ItemID: a, Quantity: 5}}, locations))

	err := CheckSufficiency(KindProduct, []ExportLine{
		{ItemID: a, Quantity: 2},
		{ItemID: b, Quantity: 1},
		{ItemID: a, Quantity: 4},
	}, locations)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	shortages := appErr.Details["shortages"].([]apperror.StockShortage)
	require.Len(t, shortages, 2)
	assert.Equal(t, a.String(), shortages[0].ItemID)
	assert.Equal(t, int64(6), shortages[0].Requested)
	assert.Equal(t, int64(0), shortages[1].Available, "deleted locations hold nothing")

	err = CheckSufficiency(KindProduct, []ExportLine{
		{ItemID: a, Quantity: math.MaxInt64},
		{ItemID: a, Quantity: 2},
	}, locations)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
}

func TestImportMaterialsCommand_Validate(t *testing.T) {
	provider := id.New()
	valid := func() ImportMaterialsCommand {
		price := types.MustMoney("1")
		return ImportMaterialsCommand{
			Type:          ReceiptTypeNormal,
			ProviderID:    &provider,
			StorageAreaID: id.New(),
			ReceiverID:    id.New(),
			Lines:         []ImportLine{{ItemID: id.New(), Quantity: 1, Price: &price}},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *ImportMaterialsCommand)
		field  string
	}{
		{"unknown type", func(c *ImportMaterialsCommand) { c.Type = "GIFT" }, "type"},
		{"missing area", func(c *ImportMaterialsCommand) { c.StorageAreaID = id.Nil() }, "material_storage_location_id"},
		{"missing provider", func(c *ImportMaterialsCommand) { c.ProviderID = nil }, "provider_id"},
		{"no lines", func(c *ImportMaterialsCommand) { c.Lines = nil }, "materials"},
		{"negative quantity", func(c *ImportMaterialsCommand) { c.Lines[0].Quantity = -1 }, "materials[0].quantity"},
		{"missing price", func(c *ImportMaterialsCommand) { c.Lines[0].Price = nil }, "materials[0].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid()
			tt.mutate(&cmd)
			err := cmd.Validate()
			require.Error(t, err)
			appErr, _ := apperror.AsAppError(err)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}

	ret := valid()
	ret.Type = ReceiptTypeReturn
	ret.ProviderID = nil
	ret.Lines[0].Price = nil
	assert.NoError(t, ret.Validate())
}

func TestSortedDemand_LockOrder(t *testing.T) {
	a := id.MustParse("00000000-0000-0000-0000-000000000001")
	b := id.MustParse("00000000-0000-0000-0000-000000000002")
	c := id.MustParse("10000000-0000-0000-0000-000000000000")

	wanted := exportDemand([]ExportLine{
		{ItemID: c, Quantity: 1},
		{ItemID: a, Quantity: 2},
		{ItemID: b, Quantity: 3},
		{ItemID: a, Quantity: 4},
	})
	got := sortedDemand(wanted)

	assert.Equal(t, []demand{{a, 6}, {b, 3}, {c, 1}}, got)
	assert.Equal(t, c, wanted[0].ItemID, "input keeps first-appearance order")
}
