package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBrokers lists the venues every new user gets a placeholder account for.
var DefaultBrokers = []string{"Binomo", "Quotex", "Olymptrade", "IQ Option", "Stockity"}

// DefaultInitialBalance is the placeholder balance of a freshly provisioned account.
var DefaultInitialBalance = decimal.NewFromInt(1000)

// TradingAccount is a per-broker account row owned by a user. Balances are
// static placeholders; nothing in the platform trades against them.
type TradingAccount struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	BrokerName string          `json:"broker_name"`
	Balance    decimal.Decimal `json:"account_balance"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
}
