// Package monitor implements the trusted off-chain relayer of the bridge:
// it watches one ledger's outbox for cross-chain transfer intents, waits a
// confirmation delay, and replays each intent into AcceptTransfer on the
// destination ledger. Delivery may be duplicated or delayed arbitrarily;
// the destination's idempotency key makes blind replays safe, so the
// monitor retries without bookkeeping of its own.
package monitor

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

const (
	// defaultBuffer is the subscription buffer when none is configured.
	defaultBuffer = 256
	// maxRelayRetries bounds the backoff attempts per intent.
	maxRelayRetries = 8
)

// Source is the ledger side the monitor watches.
type Source interface {
	Events() []types.Event
	Subscribe(buffer int) (<-chan types.Event, func())
}

// Destination is the ledger side the monitor submits acceptances to.
type Destination interface {
	AcceptTransfer(ctx context.Context, caller, receiver common.Address, amount *big.Int, sender, fromBlockchain string, blockHash, txHash common.Hash, logIndex uint) error
}

// Config configures a relaying monitor.
type Config struct {
	// Identity is the account holding the Monitor role on the destination
	// ledger.
	Identity common.Address

	// SourceBlockchain is the name the destination registry knows the
	// watched chain by; it becomes the fromBlockchain of every acceptance.
	SourceBlockchain string

	// DestBlockchain filters intents: only CrossRequest events addressed
	// to this chain name are relayed.
	DestBlockchain string

	// ConfirmationDelay is how long to wait after observing an intent
	// before submitting it, standing in for source-chain confirmation
	// depth.
	ConfirmationDelay time.Duration

	// Buffer is the subscription channel buffer.
	Buffer int
}

// Monitor relays transfer intents from a source ledger to a destination
// ledger.
type Monitor struct {
	config Config
	source Source
	dest   Destination
	logger *logrus.Logger

	events <-chan types.Event
	cancel func()
}

// New creates a monitor and registers its outbox subscription, so intents
// the source emits between construction and Run are buffered rather than
// lost. Identity must hold the Monitor role on the destination ledger for
// relayed acceptances to pass.
func New(config Config, source Source, dest Destination, logger *logrus.Logger) (*Monitor, error) {
	if source == nil || dest == nil {
		return nil, errors.New("source and destination are required")
	}
	if config.SourceBlockchain == "" || config.DestBlockchain == "" {
		return nil, errors.New("source and destination blockchain names are required")
	}
	if config.Buffer <= 0 {
		config.Buffer = defaultBuffer
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	events, cancel := source.Subscribe(config.Buffer)
	return &Monitor{
		config: config,
		source: source,
		dest:   dest,
		logger: logger,
		events: events,
		cancel: cancel,
	}, nil
}

// Run delivers intents until the context is cancelled or the subscription
// closes, then waits for in-flight deliveries. It first replays the
// source's outbox journal, so intents emitted before this monitor existed
// are still delivered; replays may overlap with buffered live events,
// which is safe because acceptance is idempotent. A Monitor is good for
// one Run: returning closes the subscription.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.cancel()

	m.logger.WithFields(logrus.Fields{
		"from": m.config.SourceBlockchain,
		"to":   m.config.DestBlockchain,
	}).Info("Monitor started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for _, event := range m.source.Events() {
		m.dispatch(ctx, &wg, event)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-m.events:
			if !ok {
				return nil
			}
			m.dispatch(ctx, &wg, event)
		}
	}
}

// dispatch filters one outbox event and hands matching intents to their
// own delivery goroutine, so a confirmation delay or a slow destination
// cannot back up the subscription buffer.
func (m *Monitor) dispatch(ctx context.Context, wg *sync.WaitGroup, event types.Event) {
	request, ok := event.Payload.(types.CrossRequest)
	if !ok || request.ToBlockchain != m.config.DestBlockchain {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		if err := m.waitConfirmation(ctx); err != nil {
			return
		}
		if err := m.relay(ctx, &request); err != nil {
			m.logger.WithError(err).WithFields(logrus.Fields{
				"sender":    request.Sender.Hex(),
				"toAddress": request.ToAddress,
				"amount":    request.Amount.String(),
			}).Error("Failed to relay transfer")
		}
	}()
}

func (m *Monitor) waitConfirmation(ctx context.Context) error {
	if m.config.ConfirmationDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(m.config.ConfirmationDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// relay submits one intent with exponential backoff. "already processed"
// counts as success: it means this or another monitor instance delivered
// the transfer before us.
func (m *Monitor) relay(ctx context.Context, request *types.CrossRequest) error {
	receiver := common.HexToAddress(request.ToAddress)

	operation := func() error {
		err := m.dest.AcceptTransfer(
			ctx,
			m.config.Identity,
			receiver,
			request.Amount,
			request.Sender.Hex(),
			m.config.SourceBlockchain,
			request.BlockHash,
			request.TxHash,
			request.LogIndex,
		)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, bridgeerrors.ErrAlreadyProcessed):
			m.logger.WithField("txHash", request.TxHash.Hex()).Debug("Transfer already processed")
			return nil
		case errors.Is(err, bridgeerrors.ErrNotMonitor),
			errors.Is(err, bridgeerrors.ErrReceiverZero),
			errors.Is(err, bridgeerrors.ErrAmountZero),
			errors.Is(err, bridgeerrors.ErrNoSender),
			errors.Is(err, bridgeerrors.ErrFromBlockchainNotFound),
			errors.Is(err, bridgeerrors.ErrBlockHashNull),
			errors.Is(err, bridgeerrors.ErrTransactionHashNull):
			// Retrying cannot fix a rejected submission.
			return backoff.Permanent(err)
		default:
			// Pause and balance shortfalls clear with time.
			return err
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRelayRetries), ctx)
	return backoff.Retry(operation, policy)
}
