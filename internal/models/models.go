package models

import (
	"time"
)

// DepositBalance is one (user, asset) row of the balance ledger. Amount is
// the portion of the user's historical net deposits not yet withdrawn,
// stored as a base-10 integer string in token base units. It is never
// negative.
type DepositBalance struct {
	ID          uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	UserAddress string    `json:"user_address" gorm:"size:66;not null;uniqueIndex:idx_user_asset,priority:1"`
	AssetKey    string    `json:"asset_key" gorm:"size:50;not null;uniqueIndex:idx_user_asset,priority:2"`
	Amount      string    `json:"amount" gorm:"type:numeric(78,0);not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FeeBalance is the per-asset accumulated profit-share fee owed to the
// owner. Zeroed in full on every fee sweep.
type FeeBalance struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	AssetKey  string    `json:"asset_key" gorm:"size:50;not null;uniqueIndex"`
	Amount    string    `json:"amount" gorm:"type:numeric(78,0);not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GlobalConfig is a key/value row for mutable runtime configuration, such
// as the executor contract address and the circuit breaker mode.
type GlobalConfig struct {
	ConfigKey   string    `json:"config_key" gorm:"primaryKey;size:100"`
	ConfigValue string    `json:"config_value" gorm:"type:text;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   string    `json:"updated_by" gorm:"size:100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Global config keys.
const (
	ConfigKeyExecutorAddress = "executor_address"
	ConfigKeyEmergencyMode   = "emergency_mode"
)

// OrderReceipt records one successfully delegated order.
type OrderReceipt struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserAddress string    `json:"user_address" gorm:"size:66;not null;index"`
	Recipient   string    `json:"recipient" gorm:"size:66;not null"`
	Inputs      string    `json:"inputs" gorm:"type:jsonb;not null"`
	Outputs     string    `json:"outputs" gorm:"type:jsonb;not null"`
	RelayTarget string    `json:"relay_target" gorm:"size:66"`
	TxHash      string    `json:"tx_hash" gorm:"size:66"`
	CreatedAt   time.Time `json:"created_at"`
}

// WithdrawalReceipt records one processed withdrawal with its settlement
// breakdown. All amounts are base-10 integer strings.
type WithdrawalReceipt struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	UserAddress string    `json:"user_address" gorm:"size:66;not null;index"`
	AssetKey    string    `json:"asset_key" gorm:"size:50;not null"`
	Amount      string    `json:"amount" gorm:"type:numeric(78,0);not null"`
	Profit      string    `json:"profit" gorm:"type:numeric(78,0);not null"`
	Fee         string    `json:"fee" gorm:"type:numeric(78,0);not null"`
	Payout      string    `json:"payout" gorm:"type:numeric(78,0);not null"`
	TxHash      string    `json:"tx_hash" gorm:"size:66"`
	CreatedAt   time.Time `json:"created_at"`
}
