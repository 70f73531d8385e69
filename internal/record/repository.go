package record

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/model"
	"main/internal/order"
	"main/pkg/exception"
)

// Repository journals order transactions and executions to PostgreSQL.
// It is a best-effort audit trail; callers log persistence failures and
// keep going.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, errors.Wrap(exception.ErrNilInstance, "record repository requires a database")
	}

	return &Repository{db: db}, nil
}

// Migrate creates the journal tables if they do not exist.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&OrderJournal{}, &ExecutionJournal{})
}

// SaveOrder upserts the journal row for ord keyed by its acceptance id.
func (r *Repository) SaveOrder(ctx context.Context, ord *order.Order) error {
	if ord == nil {
		return errors.Wrap(exception.ErrNilInstance, "save order")
	}

	legs, err := sonic.ConfigFastest.MarshalToString(ord.Legs)
	if err != nil {
		return errors.Wrap(err, "marshal legs")
	}

	row := OrderJournal{
		ID:           uuid.NewString(),
		Instrument:   ord.Instrument,
		AcceptanceID: ord.AcceptanceID,
		ExchangeID:   ord.ExchangeID,
		Method:       ord.Method,
		State:        ord.State,
		Legs:         legs,
	}
	if !ord.ExpireAt.IsZero() {
		expireAt := ord.ExpireAt
		row.ExpireAt = &expireAt
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "acceptance_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"exchange_id", "state", "legs", "expire_at", "updated_at",
			}),
		}).
		Create(&row).Error
}

// SaveExecution appends one execution row. Duplicate exec ids are
// dropped silently so replays stay idempotent.
func (r *Repository) SaveExecution(ctx context.Context, evt model.LifecycleEvent) error {
	row := ExecutionJournal{
		ID:           uuid.NewString(),
		Instrument:   evt.Instrument,
		AcceptanceID: evt.AcceptanceID,
		ExecID:       evt.ExecID,
		Side:         evt.Side,
		Price:        evt.Price,
		Size:         evt.Size,
		Commission:   evt.Commission,
		Swap:         evt.Swap,
		ExecutedAt:   evt.Time,
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "exec_id"}},
			DoNothing: true,
		}).
		Create(&row).Error
}

// OpenOrders returns journal rows whose state is neither terminal nor
// idle, for reconciliation after a restart.
func (r *Repository) OpenOrders(ctx context.Context, instrument string) ([]OrderJournal, error) {
	var rows []OrderJournal
	err := r.db.WithContext(ctx).
		Where("instrument = ?", instrument).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query open orders")
	}

	open := rows[:0]
	for _, row := range rows {
		if row.State.IsOpen() {
			open = append(open, row)
		}
	}

	return open, nil
}

// Executions returns the journaled executions for one acceptance id in
// execution order.
func (r *Repository) Executions(ctx context.Context, acceptanceID string) ([]ExecutionJournal, error) {
	var rows []ExecutionJournal
	err := r.db.WithContext(ctx).
		Where("acceptance_id = ?", acceptanceID).
		Order("executed_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query executions")
	}

	return rows, nil
}
