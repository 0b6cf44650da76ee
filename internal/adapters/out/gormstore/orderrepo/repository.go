package orderrepo

import (
	"context"
	"errors"
	"time"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker records aggregates written inside a unit of work.
type aggregateTracker interface {
	TrackAggregate(id order.ID, aggregate *order.Order)
}

// NewGormOrderRepository creates a new GORM order repository.
func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new order to the database.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromSnapshot(aggregate.Snapshot())
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update saves an existing order if its stored version is still expectedVersion.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order, expectedVersion int64) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromSnapshot(aggregate.Snapshot())
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expectedVersion).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", dto.ID)
		}
		return errs.NewConcurrencyConflictError("order", dto.ID, expectedVersion)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves an order by ID.
func (r *GormOrderRepository) Get(ctx context.Context, id order.ID) (*order.Order, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate retrieves an order and, on PostgreSQL, holds a row lock until the
// surrounding transaction ends. SQLite serialises writers at the database level instead.
func (r *GormOrderRepository) GetForUpdate(ctx context.Context, id order.ID) (*order.Order, error) {
	db := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		db = db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}
	return r.get(db, id)
}

// ListPendingCreatedBefore returns the oldest Pending orders created before cutoff.
func (r *GormOrderRepository) ListPendingCreatedBefore(
	ctx context.Context,
	cutoff time.Time,
	limit int,
) ([]*order.Order, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", int(order.Pending), cutoff.UTC()).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var dtos []OrderDTO
	if err := q.Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (r *GormOrderRepository) get(db *gorm.DB, id order.ID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	if err := db.First(&dto, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}
