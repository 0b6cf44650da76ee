package orderrepo

import (
	"context"
	"errors"
	"strings"

	"carservice/internal/core/domain/model/order"
	"carservice/internal/core/ports"
	"carservice/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.OrderReader = (*GormOrderReader)(nil)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// GormOrderReader serves snapshot queries outside of any transaction.
type GormOrderReader struct {
	db *gorm.DB
}

func NewGormOrderReader(db *gorm.DB) *GormOrderReader {
	return &GormOrderReader{db: db}
}

func (r *GormOrderReader) GetSnapshot(ctx context.Context, id order.ID) (order.Snapshot, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Snapshot{}, errs.NewObjectNotFoundError("order", id.String())
		}
		return order.Snapshot{}, err
	}
	return toSnapshot(dto), nil
}

func (r *GormOrderReader) ListSnapshots(ctx context.Context, filter ports.ListFilter) ([]order.Snapshot, error) {
	q := r.db.WithContext(ctx)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return r.find(q)
}

func (r *GormOrderReader) SearchSnapshots(ctx context.Context, query string) ([]order.Snapshot, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	return r.find(r.db.WithContext(ctx).Where(`LOWER(id) LIKE ? ESCAPE '\'`, pattern))
}

func (r *GormOrderReader) find(q *gorm.DB) ([]order.Snapshot, error) {
	var dtos []OrderDTO
	if err := q.Order("created_at DESC, id DESC").Find(&dtos).Error; err != nil {
		return nil, err
	}

	out := make([]order.Snapshot, 0, len(dtos))
	for _, dto := range dtos {
		out = append(out, toSnapshot(dto))
	}
	return out, nil
}
