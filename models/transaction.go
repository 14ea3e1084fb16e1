package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TransactionTypeRewardPayout = "reward_payout"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Transaction is a club ledger entry. Reward payouts are created pending and settled by finance.
type Transaction struct {
	ID              string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID          string          `gorm:"type:uuid;index" json:"user_id"`
	Type            string          `gorm:"type:varchar(32);not null;index" json:"type"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description     string          `gorm:"type:text" json:"description"`
	TransactionDate time.Time       `gorm:"type:date;not null" json:"transaction_date"`
	PaymentStatus   string          `gorm:"type:varchar(16);not null;default:'pending';index" json:"payment_status"`
	Metadata        datatypes.JSON  `gorm:"type:jsonb" json:"metadata,omitempty"`

	Timestamps
}
