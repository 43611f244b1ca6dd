package model

import "time"

type IntentStatus string

const (
	IntentStatusPending IntentStatus = "pending"
	IntentStatusPaid    IntentStatus = "paid"
	IntentStatusExpired IntentStatus = "expired"
)

type Network string

const (
	NetworkBsc   Network = "bsc"
	NetworkTrc20 Network = "trc20"
	NetworkErc20 Network = "erc20"
)

// PaymentIntent is one expected incoming payment: the address to watch, the
// amount in token units, and the acceptance window. Status moves
// pending -> paid or pending -> expired and never back; TxHash and PaidAt are
// written once, on the paid transition.
type PaymentIntent struct {
	TradeNo       string       `json:"trade_no"`
	UserID        int64        `json:"user_id"`
	WalletAddress string       `json:"wallet_address"`
	Amount        float64      `json:"usdt_amount"`
	Network       Network      `json:"network"`
	CreatedAt     int64        `json:"created_at"`
	ExpiresAt     int64        `json:"expires_at"`
	Status        IntentStatus `json:"status"`
	TxHash        string       `json:"tx_hash,omitempty"`
	PaidAt        int64        `json:"paid_at,omitempty"`
}

func (i *PaymentIntent) ExpiredAt(now time.Time) bool {
	return now.Unix() > i.ExpiresAt
}

// TransferEvent is one observed on-chain transfer as reported by the feed,
// already normalized to token units. Events carry no identity beyond the hash
// and are never mutated.
type TransferEvent struct {
	Hash      string  `json:"hash"`
	ToAddress string  `json:"to_address"`
	Amount    float64 `json:"amount"`
	Timestamp int64   `json:"timestamp"`
}
