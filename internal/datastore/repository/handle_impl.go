package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/addynamo/surge-alerts/internal/datastore/entities"
)

// handleRepository implements HandleRepository on GORM.
type handleRepository struct {
	db *gorm.DB
}

// NewHandleRepository creates a HandleRepository backed by db.
func NewHandleRepository(db *gorm.DB) HandleRepository {
	return &handleRepository{db: db}
}

// GetByName returns the handle record for a handle name.
func (r *handleRepository) GetByName(ctx context.Context, handle string) (*entities.Handle, error) {
	var h entities.Handle
	if err := r.db.WithContext(ctx).First(&h, "handle = ?", handle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("get handle %q: %w", handle, err)
	}
	return &h, nil
}

// GetOrCreate returns the handle record, creating it on first reference.
// The insert ignores unique-index conflicts so concurrent first references
// both resolve to the same row.
func (r *handleRepository) GetOrCreate(ctx context.Context, handle string) (*entities.Handle, error) {
	h := entities.Handle{Handle: handle}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "handle"}}, DoNothing: true}).
		Create(&h).Error
	if err != nil {
		return nil, fmt.Errorf("create handle %q: %w", handle, err)
	}
	if h.ID != 0 {
		return &h, nil
	}
	return r.GetByName(ctx, handle)
}

// HandleForConfig resolves the handle owning a surge config.
func (r *handleRepository) HandleForConfig(ctx context.Context, configID string) (*entities.Handle, error) {
	var h entities.Handle
	err := r.db.WithContext(ctx).
		Joins("JOIN surge_configs ON surge_configs.handle_id = handles.id").
		Where("surge_configs.id = ?", configID).
		First(&h).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHandleNotFound
		}
		return nil, fmt.Errorf("handle for config %s: %w", configID, err)
	}
	return &h, nil
}
