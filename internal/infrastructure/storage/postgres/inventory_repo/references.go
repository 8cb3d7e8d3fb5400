package inventory_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"storehouse/internal/core/apperror"
	"storehouse/internal/core/id"
	"storehouse/internal/domain/inventory"
	"storehouse/internal/infrastructure/storage/postgres"
)

var _ inventory.ReferenceRepository = (*ReferenceRepo)(nil)

var (
	storageAreaColumns = postgres.ExtractDBColumns[inventory.StorageArea]()
	userColumns        = postgres.ExtractDBColumns[inventory.User]()
	providerColumns    = postgres.ExtractDBColumns[inventory.Provider]()
)

// ReferenceRepo reads the rows receipts point at. The engine never writes them.
type ReferenceRepo struct {
	base
}

// NewReferenceRepo creates a new reference repository.
func NewReferenceRepo(txManager *postgres.TxManager) *ReferenceRepo {
	return &ReferenceRepo{base{txManager: txManager}}
}

func (r *ReferenceRepo) GetStorageArea(ctx context.Context, areaID id.ID) (*inventory.StorageArea, error) {
	var area inventory.StorageArea
	if err := r.byID(ctx, &area, "storage_areas", storageAreaColumns, areaID); err != nil {
		return nil, r.notFound(err, "storage area", areaID)
	}
	return &area, nil
}

func (r *ReferenceRepo) GetUser(ctx context.Context, userID id.ID) (*inventory.User, error) {
	var u inventory.User
	if err := r.byID(ctx, &u, "users", userColumns, userID); err != nil {
		return nil, r.notFound(err, "user", userID)
	}
	return &u, nil
}

func (r *ReferenceRepo) GetProvider(ctx context.Context, providerID id.ID) (*inventory.Provider, error) {
	var p inventory.Provider
	if err := r.byID(ctx, &p, "providers", providerColumns, providerID); err != nil {
		return nil, r.notFound(err, "provider", providerID)
	}
	return &p, nil
}

func (r *ReferenceRepo) byID(ctx context.Context, dst any, table string, columns []string, rowID id.ID) error {
	return r.get(ctx, dst, builder().Select(columns...).From(table).Where("id = ?", rowID))
}

func (r *ReferenceRepo) notFound(err error, entity string, rowID id.ID) error {
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound(entity, rowID)
	}
	return fmt.Errorf("get %s: %w", entity, err)
}
