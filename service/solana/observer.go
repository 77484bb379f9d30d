package solana

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/squidish/solana-whale-watcher/service/metrics"
)

// EventSink receives qualifying balance changes as they are observed.
// Implementations must not block indefinitely; a failed publish is logged
// and does not affect the observation run.
type EventSink interface {
	PublishBalanceChange(ctx context.Context, signature string, slot uint64, change BalanceChange) error
}

// Observer drives the subscribe -> notify -> lookup -> extract -> filter
// loop over the transaction log stream. One Observe call owns one
// subscription; notifications are processed strictly in delivery order.
type Observer struct {
	rpc      RPCClient
	streams  StreamDialer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", rpc host)

	sink          EventSink
	lookupTimeout time.Duration
}

// NewObserver creates a new Observer.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet",
// "devnet", or RPC hostname). If m is nil, no metrics will be recorded.
func NewObserver(rpcClient RPCClient, dialer StreamDialer, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Observer {
	return &Observer{
		rpc:      rpcClient,
		streams:  dialer,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// SetEventSink attaches an optional sink that receives every qualifying
// balance change (e.g., a NATS publisher).
func (o *Observer) SetEventSink(sink EventSink) {
	o.sink = sink
}

// SetLookupTimeout bounds each GetTransaction round trip. Zero (the
// default) means wait indefinitely.
func (o *Observer) SetLookupTimeout(d time.Duration) {
	o.lookupTimeout = d
}

// notificationOutcome classifies what processing one notification produced,
// so the loop's continuation logic is explicit rather than buried in error
// handling.
type notificationOutcome int

const (
	// outcomeQualifying: at least one event passed the threshold filter.
	outcomeQualifying notificationOutcome = iota
	// outcomeEmpty: the transaction was processed but no event qualified.
	outcomeEmpty
	// outcomeSkipped: the transaction is unavailable (pruned or not yet
	// indexed). Not an error.
	outcomeSkipped
	// outcomeFailed: a recoverable per-notification failure.
	outcomeFailed
)

type notificationResult struct {
	outcome notificationOutcome
	events  []BalanceChange
	err     error
}

// Observe subscribes to all transaction logs at finalized commitment and
// accumulates qualifying balance changes until maxEvents notifications have
// each contributed at least one event. maxEvents counts notifications, not
// events: a single transaction may contribute several.
//
// A balance change qualifies when |DeltaSOL| >= thresholdSOL; a threshold
// of 0 admits every non-zero change.
//
// Failures while processing a single notification are logged and recovered;
// only the stream itself closing ends the run early, in which case the
// partial result is returned alongside an error wrapping
// ErrStreamTerminated.
func (o *Observer) Observe(ctx context.Context, maxEvents int, thresholdSOL float64) ([]BalanceChange, error) {
	if maxEvents <= 0 {
		return nil, fmt.Errorf("maxEvents must be positive, got %d", maxEvents)
	}
	if thresholdSOL < 0 {
		return nil, fmt.Errorf("thresholdSOL must be non-negative, got %f", thresholdSOL)
	}

	stream, err := o.streams.SubscribeLogs(ctx)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordStreamSubscribe("error")
		}
		return nil, fmt.Errorf("failed to open log subscription: %w", err)
	}
	defer stream.Unsubscribe()

	if o.metrics != nil {
		o.metrics.RecordStreamSubscribe("success")
	}
	o.logger.InfoContext(ctx, "subscribed to transaction logs",
		"commitment", "finalized",
		"max_events", maxEvents,
		"threshold_sol", thresholdSOL,
	)

	var accumulated []BalanceChange
	count := 0
	for count < maxEvents {
		notification, err := stream.Recv(ctx)
		if err != nil {
			// The subscription closed underneath us. Return whatever was
			// gathered; the caller can tell complete from partial by count.
			o.logger.WarnContext(ctx, "log stream terminated",
				"qualifying_count", count,
				"error", err,
			)
			return accumulated, fmt.Errorf("%w: %v", ErrStreamTerminated, err)
		}

		res := o.processNotification(ctx, notification, thresholdSOL)
		switch res.outcome {
		case outcomeQualifying:
			accumulated = append(accumulated, res.events...)
			count++
			if o.metrics != nil {
				o.metrics.RecordNotification(metrics.NotificationQualifying)
				o.metrics.RecordQualifyingNotification()
			}
		case outcomeEmpty:
			if o.metrics != nil {
				o.metrics.RecordNotification(metrics.NotificationEmpty)
			}
		case outcomeSkipped:
			if o.metrics != nil {
				o.metrics.RecordNotification(metrics.NotificationSkipped)
			}
		case outcomeFailed:
			// Never fatal: a bad notification yields nothing and the loop
			// moves on.
			o.logger.ErrorContext(ctx, "failed to process notification", "error", res.err)
			if o.metrics != nil {
				o.metrics.RecordNotification(metrics.NotificationError)
			}
		}
	}

	o.logger.InfoContext(ctx, "observation complete",
		"qualifying_notifications", count,
		"events", len(accumulated),
	)
	return accumulated, nil
}

// processNotification handles exactly one stream notification: signature
// extraction, detail lookup, delta extraction, and threshold filtering.
func (o *Observer) processNotification(ctx context.Context, notification *ws.LogResult, thresholdSOL float64) notificationResult {
	if notification == nil || notification.Value.Signature.IsZero() {
		return notificationResult{outcome: outcomeFailed, err: ErrMalformedNotification}
	}
	sig := notification.Value.Signature

	lookupCtx := ctx
	if o.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, o.lookupTimeout)
		defer cancel()
	}

	// Fetch full transaction details with support for versioned transactions
	opts := &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentFinalized,
		MaxSupportedTransactionVersion: &[]uint64{0}[0],
	}
	start := time.Now()
	result, err := o.rpc.GetTransaction(lookupCtx, sig, opts)
	duration := time.Since(start).Seconds()

	status := "success"
	if err != nil {
		status = "error"
	}
	if o.metrics != nil {
		o.metrics.RecordRPCCall("GetTransaction", status, o.endpoint, duration)
	}
	if err != nil {
		return notificationResult{
			outcome: outcomeFailed,
			err:     fmt.Errorf("lookup for %s failed: %w", sig, err),
		}
	}

	// The node may not have the transaction (pruned, or the lookup raced
	// indexing). Skip silently.
	if result == nil || result.Meta == nil || result.Transaction == nil {
		o.logger.DebugContext(ctx, "transaction not available, skipping",
			"signature", sig.String(),
		)
		return notificationResult{outcome: outcomeSkipped}
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return notificationResult{
			outcome: outcomeFailed,
			err:     fmt.Errorf("failed to decode transaction %s: %w", sig, err),
		}
	}

	changes, err := ExtractBalanceChanges(SnapshotFromMeta(result.Meta), tx.Message.AccountKeys)
	if err != nil {
		return notificationResult{
			outcome: outcomeFailed,
			err:     fmt.Errorf("failed to extract balance changes for %s: %w", sig, err),
		}
	}

	var qualifying []BalanceChange
	for _, c := range changes {
		if math.Abs(c.DeltaSOL) >= thresholdSOL {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) == 0 {
		return notificationResult{outcome: outcomeEmpty}
	}

	for _, c := range qualifying {
		o.logger.InfoContext(ctx, fmt.Sprintf("%s: %s %.9f SOL (%s)",
			c.Account, c.Direction, math.Abs(c.DeltaSOL), c.Reason))
		if o.metrics != nil {
			o.metrics.RecordBalanceChanges(string(c.Direction), 1)
		}
		if o.sink != nil {
			if err := o.sink.PublishBalanceChange(ctx, sig.String(), result.Slot, c); err != nil {
				o.logger.WarnContext(ctx, "failed to publish balance change",
					"signature", sig.String(),
					"account", c.Account,
					"error", err,
				)
			}
		}
	}

	return notificationResult{outcome: outcomeQualifying, events: qualifying}
}
