package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
)

func TestStockView_ReportsDrift(t *testing.T) {
	f := newFixture(t)
	areaA := f.store.AddStorageArea(inventory.AreaTypeProduct)
	areaB := f.store.AddStorageArea(inventory.AreaTypeProduct)
	product := f.store.AddItem(inventory.KindProduct)
	f.store.Stock(inventory.KindProduct, product, areaA, 4)
	f.store.Stock(inventory.KindProduct, product, areaB, 6)

	view, err := f.svc.StockView(f.ctx, inventory.KindProduct, product)
	require.NoError(t, err)
	assert.Equal(t, int64(10), view.Mirror)
	assert.Equal(t, int64(10), view.LedgerSum)
	assert.Zero(t, view.Drift)
	assert.Len(t, view.Locations, 2)

	f.store.SetMirror(inventory.KindProduct, product, 13)
	view, err = f.svc.StockView(f.ctx, inventory.KindProduct, product)
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.Drift)
}

func TestReconcile_RewritesMirrorFromLedger(t *testing.T) {
	f := newFixture(t)
	area := f.store.AddStorageArea(inventory.AreaTypeMaterial)
	material := f.store.AddItem(inventory.KindMaterial)
	f.store.Stock(inventory.KindMaterial, material, area, 7)
	f.store.SetMirror(inventory.KindMaterial, material, 2)

	view, err := f.svc.Reconcile(f.ctx, f.actor, inventory.KindMaterial, material)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), view.Drift)
	assert.Equal(t, int64(7), f.store.Item(inventory.KindMaterial, material).QuantityAvailable)

	records := f.store.AuditRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "materials", records[0].EntityType)

	again, err := f.svc.Reconcile(f.ctx, f.actor, inventory.KindMaterial, material)
	require.NoError(t, err)
	assert.Zero(t, again.Drift)
	assert.Len(t, f.store.AuditRecords(), 1)
}

func TestStockView_UnknownItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StockView(f.ctx, inventory.KindProduct, id.New())
	requireCode(t, err, apperror.CodeNotFound)
}
