package nats

import (
	"time"

	"github.com/squidish/solana-whale-watcher/service/solana"
)

// WhaleEvent represents a qualifying balance change published to NATS.
// This is published to the subject "whales.{account}" in JetStream.
type WhaleEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`

	// Balance movement
	Account       string  `json:"account"`
	DeltaLamports int64   `json:"delta_lamports"`
	DeltaSOL      float64 `json:"delta_sol"`
	Direction     string  `json:"direction"`
	Reason        string  `json:"reason"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// FromBalanceChange converts an observed balance change to a WhaleEvent for
// publishing.
func FromBalanceChange(signature string, slot uint64, change solana.BalanceChange) *WhaleEvent {
	return &WhaleEvent{
		Signature:     signature,
		Slot:          slot,
		Account:       change.Account,
		DeltaLamports: change.DeltaLamports,
		DeltaSOL:      change.DeltaSOL,
		Direction:     string(change.Direction),
		Reason:        string(change.Reason),
		PublishedAt:   time.Now().UTC(),
	}
}
