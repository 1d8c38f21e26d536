// Package ledger implements the bridge ledger: the per-chain accounting
// contract of the two-sided token bridge. A deployment locks tokens on its
// own chain via ReceiveTokens and credits claimable balances for transfers
// observed on the other side via AcceptTransfer, submitted by the trusted
// monitor role. Four facets cooperate: access control, the blockchain
// registry, the fee and accounting engine, and the transfer protocol.
//
// All state transitions are serialized by a single mutex, mirroring the
// host execution model of the on-chain original: no two mutating calls
// interleave, and every error leaves no partial effects behind.
package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
	"github.com/brzbridge/ledger-lib/token"
)

const (
	// Version identifies the ledger protocol revision.
	Version = "v0"

	// DecimalPercent is the fixed accuracy denominator of the bridge fee
	// percentage: 10000 gives 0.01% resolution.
	DecimalPercent = 10000

	// defaultFeePercentage is the bridge fee a fresh deployment charges,
	// in DecimalPercent units (10 = 0.1%).
	defaultFeePercentage = 10
)

// EventSink receives every outbox record. Events are handed over
// asynchronously from a bounded queue; sink failures and queue overflow
// are logged and never revert or delay the emitting operation.
type EventSink interface {
	SaveEvent(ctx context.Context, event *types.Event) error
}

// Bridge is one side of the token bridge: the ledger deployed on a single
// chain. Construct one per chain with New.
type Bridge struct {
	mu sync.Mutex

	logger  *logrus.Logger
	token   token.Token
	account common.Address

	paused bool
	roles  map[types.Role]map[common.Address]bool

	blockchains map[string]*types.Blockchain
	names       []string

	feePercentage     *big.Int
	gasAcceptTransfer *big.Int
	quoteETHBRZ       *big.Int

	totalFeeReceived *big.Int
	totalToClaim     *big.Int
	balancesToClaim  map[common.Address]*big.Int
	processed        map[common.Hash]bool

	events []types.Event
	seq    uint64
	subs   []*subscriber
	sink   EventSink
	sinkCh chan types.Event
}

// Option configures a Bridge at construction time.
type Option func(*Bridge)

// WithLogger sets the logger. Defaults to logrus.StandardLogger.
func WithLogger(logger *logrus.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithEventSink attaches a persistent sink for the audit outbox.
func WithEventSink(sink EventSink) Option {
	return func(b *Bridge) { b.sink = sink }
}

// WithProcessed seeds the processed-transfer set, letting a restarted
// deployment resume from persisted state without re-crediting transfers.
func WithProcessed(ids []common.Hash) Option {
	return func(b *Bridge) {
		for _, id := range ids {
			b.processed[id] = true
		}
	}
}

// New creates a bridge ledger bound to the given token collaborator.
// account is the ledger's own token account (the address holding locked
// funds); owner receives the Owner role. The fee percentage starts at the
// default; the gas estimate and ETH quote start at zero and must be set
// before minimum destination fees take effect.
func New(tok token.Token, account, owner common.Address, opts ...Option) (*Bridge, error) {
	if tok == nil {
		return nil, bridgeerrors.ErrTokenZero
	}
	if owner == (common.Address{}) {
		return nil, bridgeerrors.ErrOwnerZero
	}

	b := &Bridge{
		logger:  logrus.StandardLogger(),
		token:   tok,
		account: account,
		roles: map[types.Role]map[common.Address]bool{
			types.RoleOwner:   {owner: true},
			types.RoleAdmin:   {},
			types.RoleMonitor: {},
		},
		blockchains:       make(map[string]*types.Blockchain),
		feePercentage:     big.NewInt(defaultFeePercentage),
		gasAcceptTransfer: big.NewInt(0),
		quoteETHBRZ:       big.NewInt(0),
		totalFeeReceived:  big.NewInt(0),
		totalToClaim:      big.NewInt(0),
		balancesToClaim:   make(map[common.Address]*big.Int),
		processed:         make(map[common.Hash]bool),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.sink != nil {
		b.sinkCh = make(chan types.Event, sinkBuffer)
		go b.sinkLoop()
	}

	return b, nil
}

// Account returns the ledger's own token account.
func (b *Bridge) Account() common.Address {
	return b.account
}

// Token returns the current token collaborator.
func (b *Bridge) Token() token.Token {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// SetToken replaces the token collaborator. Owner only, pause-gated.
// Emits TokenChanged.
func (b *Bridge) SetToken(caller common.Address, tok token.Token) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if tok == nil {
		return bridgeerrors.ErrTokenZero
	}

	b.token = tok
	b.emit(types.EventTokenChanged, types.TokenChange{TokenAddress: tok.Address()})

	b.logger.WithField("token", tok.Address().Hex()).Info("Token replaced")
	return nil
}

// Paused reports whether the circuit breaker is engaged.
func (b *Bridge) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Pause engages the circuit breaker. Owner only. While paused,
// ReceiveTokens, AcceptTransfer, registry and role mutation, and all
// setters fail; Claim and WithdrawToken stay available so committed funds
// are never trapped.
func (b *Bridge) Pause(caller common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if b.paused {
		return bridgeerrors.ErrPaused
	}

	b.paused = true
	b.emit(types.EventPaused, types.PauseChange{Sender: caller})

	b.logger.WithField("sender", caller.Hex()).Warn("Bridge paused")
	return nil
}

// Unpause releases the circuit breaker. Owner only.
func (b *Bridge) Unpause(caller common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if !b.paused {
		return bridgeerrors.ErrNotPaused
	}

	b.paused = false
	b.emit(types.EventUnpaused, types.PauseChange{Sender: caller})

	b.logger.WithField("sender", caller.Hex()).Info("Bridge unpaused")
	return nil
}

// GetTokenBalance reads the ledger's actual held token balance through the
// token collaborator. It is deliberately not tracked as separate state, so
// it cannot drift from the token contract's view.
func (b *Bridge) GetTokenBalance(ctx context.Context) (*big.Int, error) {
	b.mu.Lock()
	tok := b.token
	account := b.account
	b.mu.Unlock()

	return tok.BalanceOf(ctx, account)
}

// requireNotPaused must be called with the mutex held.
func (b *Bridge) requireNotPaused() error {
	if b.paused {
		return bridgeerrors.ErrPaused
	}
	return nil
}

// requireRole must be called with the mutex held.
func (b *Bridge) requireRole(role types.Role, account common.Address, authErr error) error {
	if !b.roles[role][account] {
		return authErr
	}
	return nil
}
