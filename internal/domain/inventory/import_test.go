package inventory_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/numerator"
	"storehouse/internal/core/types"
	"storehouse/internal/domain/inventory"
)

func TestImportMaterials_NormalFirstTime(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)

	cmd := f.normalMaterialImport(area, material, 10, "2.50")
	cmd.Lines = append(cmd.Lines, inventory.ImportLine{ItemID: material, Quantity: 4, Price: money("1.25")})

	receipt, err := f.svc.ImportMaterials(f.ctx, f.actor, cmd)
	require.NoError(t, err)

	assert.Equal(t, inventory.StatusPendingApproved, receipt.Status)
	assert.Equal(t, "IMPM15102600001", receipt.Code)
	assert.Equal(t, f.actor.UserID, receipt.CreatedBy)
	assert.Equal(t, cmd.ProviderID, receipt.ProviderID)
	assert.True(t, receipt.TotalPrice.Equal(types.MustMoney("30.00")), "total %s", receipt.TotalPrice)
	require.Len(t, receipt.Details, 2)

	loc, ok := f.store.Location(inventory.KindMaterial, material, area)
	require.True(t, ok)
	assert.Equal(t, int64(14), loc.Quantity)
	assert.Equal(t, loc.ID, receipt.Details[0].StorageLocationID)
	assert.Equal(t, int64(14), f.store.Item(inventory.KindMaterial, material).QuantityAvailable)
	assert.Equal(t, 1, f.store.LocationCount(inventory.KindMaterial))

	records := f.store.AuditRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "material_import_receipts", records[0].EntityType)
	assert.Equal(t, string(inventory.AuditCreate), records[0].Action)
	assert.Equal(t, receipt.Code, records[0].Changes["code"])
}

func TestImportMaterials_ReturnCompletesWithoutProviderOrPrice(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)

	receipt, err := f.svc.ImportMaterials(f.ctx, f.actor, inventory.ImportMaterialsCommand{
		Type:          inventory.ReceiptTypeReturn,
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines: []inventory.ImportLine{
			{ItemID: material, Quantity: 10, Price: money("99")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, inventory.StatusCompleted, receipt.Status)
	assert.Equal(t, inventory.ReceiptTypeReturn, receipt.Type)
	assert.Nil(t, receipt.ProviderID)
	assert.True(t, receipt.TotalPrice.IsZero())
	assert.Nil(t, receipt.Details[0].Price)

	loc, ok := f.store.Location(inventory.KindMaterial, material, area)
	require.True(t, ok)
	assert.Equal(t, int64(10), loc.Quantity)
	assert.Equal(t, int64(10), f.store.Item(inventory.KindMaterial, material).QuantityAvailable)
}

func TestImportProducts_UpdatesLocationInPlace(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeProduct)
	product := f.store.AddItem(inventory.KindProduct)
	receiver := f.store.AddUser(true)

	first, err := f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    receiver,
		Lines:         []inventory.ImportLine{{ItemID: product, Quantity: 10, MinimumStockLevel: ptr(int64(3))}},
	})
	require.NoError(t, err)
	second, err := f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    receiver,
		Lines:         []inventory.ImportLine{{ItemID: product, Quantity: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, inventory.StatusCompleted, first.Status)
	assert.Equal(t, "IMPP15102600001", first.Code)
	assert.Equal(t, "IMPP15102600002", second.Code)

	loc, ok := f.store.Location(inventory.KindProduct, product, area)
	require.True(t, ok)
	assert.Equal(t, int64(15), loc.Quantity)
	assert.Equal(t, 1, f.store.LocationCount(inventory.KindProduct))
	assert.Equal(t, first.Details[0].StorageLocationID, second.Details[0].StorageLocationID)

	item := f.store.Item(inventory.KindProduct, product)
	assert.Equal(t, int64(15), item.QuantityAvailable)
	require.NotNil(t, item.MinimumStockLevel)
	assert.Equal(t, int64(3), *item.MinimumStockLevel)
}

func TestImport_MirrorMatchesLedgerAcrossAreas(t *testing.T) {
	f := newFixture(t)
	areaA := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	areaB := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)

	_, err := f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(areaA, material, 7, "1"))
	require.NoError(t, err)
	_, err = f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(areaB, material, 5, "1"))
	require.NoError(t, err)
	_, err = f.svc.ExportMaterials(f.ctx, f.actor, inventory.ExportMaterialsCommand{
		StorageAreaID: areaA,
		Lines:         []inventory.ExportLine{{ItemID: material, Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(8), f.store.LedgerSum(inventory.KindMaterial, material))
	assert.Equal(t, f.store.LedgerSum(inventory.KindMaterial, material),
		f.store.Item(inventory.KindMaterial, material).QuantityAvailable)
}

func TestImport_SequentialCodesHaveNoGaps(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)

	var codes []string
	for i := 0; i < 5; i++ {
		r, err := f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(area, material, 1, "1"))
		require.NoError(t, err)
		codes = append(codes, r.Code)
	}
	// a failed import must not burn a number
	_, err := f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(area, id.New(), 1, "1"))
	requireCode(t, err, apperror.CodeUnknownRef)
	r, err := f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(area, material, 1, "1"))
	require.NoError(t, err)
	codes = append(codes, r.Code)

	assert.Equal(t, []string{
		"IMPM15102600001",
		"IMPM15102600002",
		"IMPM15102600003",
		"IMPM15102600004",
		"IMPM15102600005",
		"IMPM15102600006",
	}, codes)

	f.clock = f.clock.AddDate(0, 0, 1)
	next, err := f.svc.ImportMaterials(f.ctx, f.actor, f.normalMaterialImport(area, material, 1, "1"))
	require.NoError(t, err)
	assert.Equal(t, "IMPM16102600001", next.Code)
}

func TestImport_ReferenceErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, cmd *inventory.ImportMaterialsCommand)
	}{
		{
			name: "product area",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				cmd.StorageAreaID = f.store.AddStorageArea(inventory.AreaTypeProduct)
			},
		},
		{
			name: "deleted area",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				f.store.DeleteStorageArea(cmd.StorageAreaID)
			},
		},
		{
			name: "unknown area",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				cmd.StorageAreaID = id.New()
			},
		},
		{
			name: "inactive receiver",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				cmd.ReceiverID = f.store.AddUser(false)
			},
		},
		{
			name: "unknown provider",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				cmd.ProviderID = ptr(id.New())
			},
		},
		{
			name: "unknown material",
			mutate: func(f *fixture, cmd *inventory.ImportMaterialsCommand) {
				cmd.Lines = append(cmd.Lines, inventory.ImportLine{ItemID: id.New(), Quantity: 1, Price: money("1")})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
			material := f.store.AddItem(inventory.KindMaterial)
			cmd := f.normalMaterialImport(area, material, 10, "1")
			tt.mutate(f, &cmd)

			_, err := f.svc.ImportMaterials(f.ctx, f.actor, cmd)

			appErr := requireCode(t, err, apperror.CodeUnknownRef)
			assert.Equal(t, 400, appErr.HTTPStatus)
			assert.Zero(t, f.store.ReceiptCount(inventory.MaterialImport))
			assert.Zero(t, f.store.LocationCount(inventory.KindMaterial))
			assert.Zero(t, f.store.Item(inventory.KindMaterial, material).QuantityAvailable)
		})
	}
}

func TestImport_FailureMidwayRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeProduct)
	p1 := f.store.AddItem(inventory.KindProduct)
	p2 := f.store.AddItem(inventory.KindProduct)
	f.store.Stock(inventory.KindProduct, p1, area, 2)
	f.store.FailOn("SaveDetails", assert.AnError)

	_, err := f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines: []inventory.ImportLine{
			{ItemID: p1, Quantity: 3},
			{ItemID: p2, Quantity: 4},
		},
	})
	require.ErrorIs(t, err, assert.AnError)

	loc, _ := f.store.Location(inventory.KindProduct, p1, area)
	assert.Equal(t, int64(2), loc.Quantity)
	_, created := f.store.Location(inventory.KindProduct, p2, area)
	assert.False(t, created)
	assert.Equal(t, int64(2), f.store.Item(inventory.KindProduct, p1).QuantityAvailable)
	assert.Zero(t, f.store.Item(inventory.KindProduct, p2).QuantityAvailable)
	assert.Zero(t, f.store.ReceiptCount(inventory.ProductImport))
	assert.Empty(t, f.store.AuditRecords())

	f.store.FailOn("SaveDetails", nil)
	r, err := f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines:         []inventory.ImportLine{{ItemID: p2, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "IMPP15102600001", r.Code)
}

func TestImport_InputValidation(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)

	noPrice := f.normalMaterialImport(area, material, 1, "1")
	noPrice.Lines[0].Price = nil
	_, err := f.svc.ImportMaterials(f.ctx, f.actor, noPrice)
	requireCode(t, err, apperror.CodeValidation)

	zero := f.normalMaterialImport(area, material, 0, "1")
	_, err = f.svc.ImportMaterials(f.ctx, f.actor, zero)
	requireCode(t, err, apperror.CodeValidation)

	_, err = f.svc.ImportMaterials(f.ctx, inventory.Actor{}, f.normalMaterialImport(area, material, 1, "1"))
	requireCode(t, err, apperror.CodeUnauthorized)

	assert.Zero(t, f.store.ReceiptCount(inventory.MaterialImport))
}

func TestImportProducts_CodeFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeProduct)
	product := f.store.AddItem(inventory.KindProduct)

	codes := &numerator.MockGenerator{
		NextCodeFunc: func(context.Context, numerator.Series, time.Time) (string, error) {
			return "", apperror.NewConflict("receipt code sequence exhausted")
		},
	}
	svc := inventory.NewService(f.store.Repositories(), codes, f.store, f.store)

	_, err := svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines:         []inventory.ImportLine{{ItemID: product, Quantity: 3}},
	})
	requireCode(t, err, apperror.CodeConflict)

	assert.Equal(t, 0, f.store.ReceiptCount(inventory.ProductImport))
	assert.Equal(t, 0, f.store.LocationCount(inventory.KindProduct))
	assert.Zero(t, f.store.Item(inventory.KindProduct, product).QuantityAvailable)
}

func TestImport_OversizedQuantities(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeProduct)
	product := f.store.AddItem(inventory.KindProduct)

	_, err := f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines: []inventory.ImportLine{
			{ItemID: product, Quantity: math.MaxInt64},
			{ItemID: product, Quantity: 2},
		},
	})
	requireCode(t, err, apperror.CodeValidation)
	assert.Zero(t, f.store.ReceiptCount(inventory.ProductImport))
	assert.Zero(t, f.store.LocationCount(inventory.KindProduct))

	// a single valid line that would push existing stock past the column range
	f.store.Stock(inventory.KindProduct, product, area, 10)
	_, err = f.svc.ImportProducts(f.ctx, f.actor, inventory.ImportProductsCommand{
		StorageAreaID: area,
		ReceiverID:    f.store.AddUser(true),
		Lines:         []inventory.ImportLine{{ItemID: product, Quantity: math.MaxInt64}},
	})
	requireCode(t, err, apperror.CodeValidation)
	assert.Zero(t, f.store.ReceiptCount(inventory.ProductImport))
	loc, _ := f.store.Location(inventory.KindProduct, product, area)
	assert.Equal(t, int64(10), loc.Quantity)
}
