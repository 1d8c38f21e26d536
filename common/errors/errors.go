package errors

import "github.com/pkg/errors"

// Authorization errors.
var (
	ErrNotOwner   = errors.New("not owner")
	ErrNotAdmin   = errors.New("not admin")
	ErrNotMonitor = errors.New("not monitor")
)

// Validation errors. Messages reproduce the revert reasons the monitor
// backend already matches against, so they must not be reworded.
var (
	ErrEmptyBlockchainName    = errors.New("blockchain name is empty")
	ErrToBlockchainNotFound   = errors.New("toBlockchain not exists")
	ErrToAddressNull          = errors.New("toAddress is null")
	ErrAmountZero             = errors.New("amount is 0")
	ErrAmountBelowMinimum     = errors.New("amount is less than minimum")
	ErrGasPriceBelowMinimum   = errors.New("gasPrice is less than minimum")
	ErrFeeBelowMinimum        = errors.New("feeBRZ is less than minimum")
	ErrReceiverZero           = errors.New("receiver is zero")
	ErrNoSender               = errors.New("no sender")
	ErrFromBlockchainNotFound = errors.New("fromBlockchain not exists")
	ErrBlockHashNull          = errors.New("blockHash is null")
	ErrTransactionHashNull    = errors.New("transactionHash is null")
	ErrTokenZero              = errors.New("token is zero address")
	ErrOwnerZero              = errors.New("owner is zero address")
	ErrUnknownRole            = errors.New("unknown role")
)

// State errors.
var (
	ErrPaused             = errors.New("paused")
	ErrNotPaused          = errors.New("not paused")
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrBlockchainExists   = errors.New("blockchain already exists")
	ErrBlockchainNotFound = errors.New("blockchain not exists")
	ErrLastBlockchain     = errors.New("requires at least 1 blockchain")
	ErrSelfRevokeOwner    = errors.New("cannot revoke own owner role")
	ErrLastOwner          = errors.New("cannot remove last owner")
)

// Resource errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoBalanceToClaim    = errors.New("no balance to claim")
)
