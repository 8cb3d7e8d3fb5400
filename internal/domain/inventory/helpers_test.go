package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/core/types"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/domain/inventory/inventorytest"
)

var testDay = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	store *inventorytest.Store
	svc   *inventory.Service
	actor inventory.Actor
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		store: inventorytest.NewStore(),
		clock: testDay,
	}
	f.actor = inventory.NewActor(f.store.AddUser(true))
	f.svc = inventory.NewService(
		f.store.Repositories(),
		f.store,
		f.store,
		f.store,
		inventory.WithClock(func() time.Time { return f.clock }),
	)
	return f
}

func requireCode(t *testing.T, err error, code string) *apperror.AppError {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code, appErr.Message)
	return appErr
}

func money(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func ptr[T any](v T) *T {
	return &v
}

// normalMaterialImport builds a NORMAL import of one line.
func (f *fixture) normalMaterialImport(areaID, materialID id.ID, qty int64, price string) inventory.ImportMaterialsCommand {
	return inventory.ImportMaterialsCommand{
		Type:          inventory.ReceiptTypeNormal,
		ProviderID:    ptr(f.store.AddProvider()),
		StorageAreaID: areaID,
		ReceiverID:    f.store.AddUser(true),
		Lines: []inventory.ImportLine{
			{ItemID: materialID, Quantity: qty, Price: money(price)},
		},
	}
}

func (f *fixture) exportProducts(areaID id.ID, lines ...inventory.ExportLine) (*inventory.Receipt, error) {
	return f.svc.ExportProducts(f.ctx, f.actor, inventory.ExportProductsCommand{
		StorageAreaID: areaID,
		ReceiverID:    f.store.AddUser(true),
		Lines:         lines,
	})
}
