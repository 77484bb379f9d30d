package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// feePayerIndex is the position of the fee payer in a transaction's account
// key list. This is a Solana protocol convention, not something we verify.
const feePayerIndex = 0

// ExtractBalanceChanges returns the SOL movement for each account whose
// balance changed within a transaction. Accounts whose balance did not move
// are omitted entirely. Output order follows the account index order of the
// snapshot.
//
// The snapshot arrays and accountKeys must be the same length; anything else
// returns ErrMismatchedSnapshot.
func ExtractBalanceChanges(snap BalanceSnapshot, accountKeys []solana.PublicKey) ([]BalanceChange, error) {
	if len(snap.Pre) != len(snap.Post) || len(snap.Pre) != len(accountKeys) {
		return nil, fmt.Errorf("%w: pre=%d post=%d keys=%d",
			ErrMismatchedSnapshot, len(snap.Pre), len(snap.Post), len(accountKeys))
	}

	var changes []BalanceChange
	for i := range snap.Pre {
		delta := int64(snap.Post[i]) - int64(snap.Pre[i])
		if delta == 0 {
			continue
		}

		direction := DirectionGain
		if delta < 0 {
			direction = DirectionLoss
		}

		// Classification order matters: the exact-fee check on the fee
		// payer wins over the generic loss bucket.
		reason := ReasonReceived
		if i == feePayerIndex && delta < 0 && uint64(-delta) == snap.Fee {
			reason = ReasonFee
		} else if delta < 0 {
			reason = ReasonSentOrFee
		}

		changes = append(changes, BalanceChange{
			Account:       accountKeys[i].String(),
			DeltaLamports: delta,
			DeltaSOL:      float64(delta) / LamportsPerSOL,
			Direction:     direction,
			Reason:        reason,
		})
	}

	return changes, nil
}
