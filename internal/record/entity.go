package record

import (
	"time"

	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// OrderJournal is one row per order transaction, upserted as the
// transaction moves through its lifecycle.
type OrderJournal struct {
	ID           string              `gorm:"column:id;primaryKey"`
	Instrument   string              `gorm:"column:instrument;index"`
	AcceptanceID string              `gorm:"column:acceptance_id;uniqueIndex"`
	ExchangeID   string              `gorm:"column:exchange_id"`
	Method       enum.OrderingMethod `gorm:"column:method"`
	State        enum.TxState        `gorm:"column:state;index"`
	Legs         string              `gorm:"column:legs;type:text"`
	ExpireAt     *time.Time          `gorm:"column:expire_at"`
	CreatedAt    time.Time           `gorm:"column:created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at"`
}

func (OrderJournal) TableName() string {
	return "order_journal"
}

// ExecutionJournal is append-only, one row per execution delta.
type ExecutionJournal struct {
	ID           string          `gorm:"column:id;primaryKey"`
	Instrument   string          `gorm:"column:instrument;index"`
	AcceptanceID string          `gorm:"column:acceptance_id;index"`
	ExecID       string          `gorm:"column:exec_id;uniqueIndex"`
	Side         enum.OrderSide  `gorm:"column:side"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric"`
	Size         decimal.Decimal `gorm:"column:size;type:numeric"`
	Commission   decimal.Decimal `gorm:"column:commission;type:numeric"`
	Swap         decimal.Decimal `gorm:"column:swap;type:numeric"`
	ExecutedAt   time.Time       `gorm:"column:executed_at"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
}

func (ExecutionJournal) TableName() string {
	return "execution_journal"
}
