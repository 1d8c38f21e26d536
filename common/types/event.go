package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// EventType identifies the kind of record appended to the ledger's outbox.
type EventType string

const (
	EventRoleGranted              EventType = "RoleGranted"
	EventRoleRevoked              EventType = "RoleRevoked"
	EventBlockchainAdded          EventType = "BlockchainAdded"
	EventBlockchainRemoved        EventType = "BlockchainRemoved"
	EventMinGasPriceChanged       EventType = "MinGasPriceChanged"
	EventMinTokenAmountChanged    EventType = "MinTokenAmountChanged"
	EventFeePercentageChanged     EventType = "FeePercentageBridgeChanged"
	EventQuoteETHBRZChanged       EventType = "QuoteETH_BRZChanged"
	EventGasAcceptTransferChanged EventType = "GasAcceptTransferChanged"
	EventTokenChanged             EventType = "TokenChanged"
	EventPaused                   EventType = "Paused"
	EventUnpaused                 EventType = "Unpaused"
	EventCrossRequest             EventType = "CrossRequest"
	EventCrossAccepted            EventType = "CrossAccepted"
)

// Event is an immutable envelope in the ledger's append-only audit log.
// External indexers and the monitor consume these; the ledger never reads
// them back.
type Event struct {
	// ID is a unique record identifier.
	ID string

	// Seq is the position in the outbox, starting at 1.
	Seq uint64

	// Type discriminates the Payload.
	Type EventType

	// EmittedAt is the wall-clock emission time.
	EmittedAt time.Time

	// Payload is one of the event payload structs below, selected by Type.
	Payload interface{}
}

// RoleChange is the payload of RoleGranted and RoleRevoked events.
type RoleChange struct {
	Role    Role
	Account common.Address
	Sender  common.Address
}

// BlockchainChange is the payload of BlockchainAdded and BlockchainRemoved.
type BlockchainChange struct {
	Name   string
	Sender common.Address
}

// MinValueChange is the payload of MinGasPriceChanged and
// MinTokenAmountChanged, carrying the chain and the old and new values.
type MinValueChange struct {
	Blockchain string
	OldValue   *big.Int
	NewValue   *big.Int
}

// ValueChange is the payload of the global parameter change events
// (fee percentage, quote, gas estimate).
type ValueChange struct {
	OldValue *big.Int
	NewValue *big.Int
}

// TokenChange is the payload of TokenChanged.
type TokenChange struct {
	TokenAddress common.Address
}

// PauseChange is the payload of Paused and Unpaused.
type PauseChange struct {
	Sender common.Address
}

// CrossRequest is the transfer intent emitted by ReceiveTokens. The
// monitor observes it on the source chain, waits for confirmation depth,
// and replays it into AcceptTransfer on the destination chain. Amount is
// net of the bridge fee.
type CrossRequest struct {
	Sender       common.Address
	Amount       *big.Int
	ToFee        *big.Int
	ToAddress    string
	ToBlockchain string

	// Source emission context, the raw material of the transfer identifier.
	BlockHash common.Hash
	TxHash    common.Hash
	LogIndex  uint
}

// CrossAccepted is the acceptance record emitted by AcceptTransfer for
// audit and indexing. Fields echo the accepted call.
type CrossAccepted struct {
	Receiver       common.Address
	Amount         *big.Int
	Sender         string
	FromBlockchain string
	BlockHash      common.Hash
	TxHash         common.Hash
	LogIndex       uint
	TransactionID  common.Hash
}
