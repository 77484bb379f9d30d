package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real
// Solana nodes.
type RPCClient interface {
	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)
}

// LogStream is one open logs subscription. Recv blocks until the next
// notification arrives or the stream ends; Unsubscribe releases the
// subscription and any underlying connection.
type LogStream interface {
	Recv(ctx context.Context) (*ws.LogResult, error)
	Unsubscribe()
}

// StreamDialer opens log subscriptions. The observer takes this interface
// so tests can script notifications without a WebSocket endpoint.
type StreamDialer interface {
	// SubscribeLogs opens a subscription to all transaction logs at
	// finalized commitment.
	SubscribeLogs(ctx context.Context) (LogStream, error)
}

// realRPCClient adapts the actual solana-go RPC client to our RPCClient
// interface.
type realRPCClient struct {
	client *rpc.Client
}

// NewRPCClient creates a new RPCClient that wraps the solana-go RPC client.
// For premium RPC endpoints that require API keys, include the key in the
// URL (Helius, QuickNode, Alchemy all work this way).
func NewRPCClient(rpcURL string) RPCClient {
	return &realRPCClient{
		client: rpc.New(rpcURL),
	}
}

func (r *realRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	return r.client.GetTransaction(ctx, signature, opts)
}

// wsStreamDialer opens log subscriptions over a real WebSocket connection.
// Each SubscribeLogs call dials its own connection so the returned stream
// owns its resources end to end.
type wsStreamDialer struct {
	wsURL string
}

// NewStreamDialer creates a StreamDialer that connects to the given Solana
// WebSocket endpoint (e.g. wss://api.mainnet-beta.solana.com).
func NewStreamDialer(wsURL string) StreamDialer {
	return &wsStreamDialer{wsURL: wsURL}
}

func (d *wsStreamDialer) SubscribeLogs(ctx context.Context) (LogStream, error) {
	conn, err := ws.Connect(ctx, d.wsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.wsURL, err)
	}

	sub, err := conn.LogsSubscribe(ws.LogsSubscribeFilterAll, rpc.CommitmentFinalized)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("logsSubscribe failed: %w", err)
	}

	return &wsLogStream{conn: conn, sub: sub}, nil
}

// wsLogStream ties a subscription to the connection it rides on so both are
// released together.
type wsLogStream struct {
	conn *ws.Client
	sub  *ws.LogSubscription
}

func (s *wsLogStream) Recv(ctx context.Context) (*ws.LogResult, error) {
	return s.sub.Recv(ctx)
}

func (s *wsLogStream) Unsubscribe() {
	s.sub.Unsubscribe()
	s.conn.Close()
}
