package models

import (
	"time"
)

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage represents one turn of a chat session. Rows are append-only
// per session and deleted in bulk when the session is cleared.
type ChatMessage struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	SessionID string   `gorm:"index;not null" json:"session_id"`
	UserID    *string  `gorm:"index;type:varchar(255)" json:"user_id,omitempty"`
	Role      ChatRole `gorm:"not null" json:"role"`
	Content   string   `gorm:"not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TrackedWallet represents a wallet the user follows on the dashboard
type TrackedWallet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"uniqueIndex;not null" json:"address"`
	Label     string    `json:"label"`
	UserID    *string   `gorm:"index;type:varchar(255)" json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenLaunch is a local cache entry recorded at submission time so the UI
// can show "my launches" before the transaction confirms. TokenAddress is
// nil until the deployer reports one; the row is never updated after insert.
type TokenLaunch struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	TokenAddress   *string   `json:"token_address,omitempty"`
	Name           string    `gorm:"not null" json:"name"`
	Symbol         string    `gorm:"not null" json:"symbol"`
	DeployerWallet string    `gorm:"index;not null" json:"deployer_wallet"`
	TxHash         string    `gorm:"not null" json:"tx_hash"`
	UserID         *string   `gorm:"index;type:varchar(255)" json:"user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// User represents a dashboard user identified by wallet address
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WalletAddress string    `gorm:"uniqueIndex;not null" json:"wallet_address"`
	CreatedAt     time.Time `json:"created_at"`
}
