package solana

import (
	"github.com/gagliardetto/solana-go/rpc"
)

// LamportsPerSOL is the number of lamports in one SOL.
const LamportsPerSOL = 1_000_000_000

// Direction indicates whether an account's balance went up or down.
type Direction string

const (
	DirectionGain Direction = "gain"
	DirectionLoss Direction = "loss"
)

// ChangeReason is a coarse classification of why a balance moved.
type ChangeReason string

const (
	// ReasonFee means the loss on the fee payer exactly equals the
	// transaction fee.
	ReasonFee ChangeReason = "fee"

	// ReasonSentOrFee means the account lost lamports, but balances alone
	// can't distinguish a transfer from a transfer-plus-fee.
	ReasonSentOrFee ChangeReason = "sent SOL or fee"

	// ReasonReceived means the account gained lamports.
	ReasonReceived ChangeReason = "received SOL"
)

// BalanceSnapshot holds the pre/post lamport balances and fee for a single
// transaction. Pre and Post share the same index space as the transaction's
// account key list; the fee is attributed to the fee payer.
type BalanceSnapshot struct {
	Pre  []uint64
	Post []uint64
	Fee  uint64
}

// SnapshotFromMeta builds a BalanceSnapshot from the transaction meta
// returned by GetTransaction.
func SnapshotFromMeta(meta *rpc.TransactionMeta) BalanceSnapshot {
	if meta == nil {
		return BalanceSnapshot{}
	}
	return BalanceSnapshot{
		Pre:  meta.PreBalances,
		Post: meta.PostBalances,
		Fee:  meta.Fee,
	}
}

// BalanceChange represents one account's SOL movement within a transaction.
// This is our domain model, independent of the RPC response format.
// Immutable once created.
type BalanceChange struct {
	Account       string       `json:"account"`
	DeltaLamports int64        `json:"delta_lamports"`
	DeltaSOL      float64      `json:"delta_sol"`
	Direction     Direction    `json:"direction"`
	Reason        ChangeReason `json:"reason"`
}
