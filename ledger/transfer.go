package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

// Transfer protocol facet. A logical cross-chain transfer moves through
// Sent (intent emitted on the source chain, tokens locked), Accepted
// (destination ledger credited a claimable balance) and Claimed (receiver
// withdrew). Only the Accepted and Claimed transitions leave state behind;
// the Sent state lives entirely in the emitted CrossRequest and the
// monitor's memory, which is safe because acceptance is idempotent.

// ReceiveTokens locks amount plus the destination fee in the ledger and
// emits the cross-chain transfer intent. The sender must have pre-approved
// the ledger's account for amount + fee.DestinationFee on the token
// contract. The supplied gas price and destination fee must clear the
// destination chain's configured floors. txctx is the emission context the
// host supplies; it is copied into the intent for the monitor to replay.
func (b *Bridge) ReceiveTokens(ctx context.Context, sender common.Address, amount *big.Int, fee types.TransferFee, toBlockchain, toAddress string, txctx types.TxContext) (*types.CrossRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return nil, err
	}

	entry, exists := b.blockchains[toBlockchain]
	if !exists {
		return nil, bridgeerrors.ErrToBlockchainNotFound
	}
	if toAddress == "" {
		// A zero-valued address string is accepted on purpose: the
		// destination chain may not use source-chain address encoding.
		return nil, bridgeerrors.ErrToAddressNull
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, bridgeerrors.ErrAmountZero
	}
	if amount.Cmp(entry.MinTokenAmount) < 0 {
		return nil, bridgeerrors.ErrAmountBelowMinimum
	}

	gasPrice := fee.GasPrice
	if gasPrice == nil {
		gasPrice = big.NewInt(0)
	}
	if gasPrice.Cmp(entry.MinGasPrice) < 0 {
		return nil, bridgeerrors.ErrGasPriceBelowMinimum
	}

	destFee := fee.DestinationFee
	if destFee == nil {
		destFee = big.NewInt(0)
	}
	if destFee.Cmp(b.minBRZFee(entry)) < 0 {
		return nil, bridgeerrors.ErrFeeBelowMinimum
	}

	total := new(big.Int).Add(amount, destFee)
	if err := b.token.TransferFrom(ctx, b.account, sender, b.account, total); err != nil {
		return nil, errors.Wrap(err, "failed to pull tokens from sender")
	}

	bridgeFee := b.bridgeFee(amount)
	b.totalFeeReceived.Add(b.totalFeeReceived, bridgeFee)

	request := types.CrossRequest{
		Sender:       sender,
		Amount:       new(big.Int).Sub(amount, bridgeFee),
		ToFee:        new(big.Int).Set(gasPrice),
		ToAddress:    toAddress,
		ToBlockchain: toBlockchain,
		BlockHash:    txctx.BlockHash,
		TxHash:       txctx.TxHash,
		LogIndex:     txctx.LogIndex,
	}
	b.emit(types.EventCrossRequest, request)

	b.logger.WithFields(logrus.Fields{
		"sender":       sender.Hex(),
		"amount":       request.Amount.String(),
		"bridgeFee":    bridgeFee.String(),
		"toBlockchain": toBlockchain,
		"toAddress":    toAddress,
	}).Info("Cross-chain transfer requested")

	return &request, nil
}

// AcceptTransfer credits a claimable balance for a transfer the monitor
// observed on the source chain. Monitor role only, pause-gated. The call
// is idempotent over its transfer identifier: the first submission wins
// and every replay fails with "already processed". Tokens are not moved;
// the receiver pulls them later with Claim. The ledger must hold enough
// uncommitted tokens to back the new claim on top of every previously
// accepted one.
func (b *Bridge) AcceptTransfer(ctx context.Context, caller, receiver common.Address, amount *big.Int, sender, fromBlockchain string, blockHash, txHash common.Hash, logIndex uint) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireRole(types.RoleMonitor, caller, bridgeerrors.ErrNotMonitor); err != nil {
		return err
	}
	if err := b.requireNotPaused(); err != nil {
		return err
	}

	if receiver == (common.Address{}) {
		return bridgeerrors.ErrReceiverZero
	}
	if amount == nil || amount.Sign() <= 0 {
		return bridgeerrors.ErrAmountZero
	}
	if sender == "" {
		return bridgeerrors.ErrNoSender
	}
	if _, exists := b.blockchains[fromBlockchain]; !exists {
		return bridgeerrors.ErrFromBlockchainNotFound
	}
	if blockHash == (common.Hash{}) {
		return bridgeerrors.ErrBlockHashNull
	}
	if txHash == (common.Hash{}) {
		return bridgeerrors.ErrTransactionHashNull
	}

	id := types.TransactionID(blockHash, txHash, receiver, amount, logIndex)
	if b.processed[id] {
		return bridgeerrors.ErrAlreadyProcessed
	}

	balance, err := b.token.BalanceOf(ctx, b.account)
	if err != nil {
		return errors.Wrap(err, "failed to get token balance")
	}
	uncommitted := new(big.Int).Sub(balance, b.totalToClaim)
	if uncommitted.Cmp(amount) < 0 {
		return bridgeerrors.ErrInsufficientBalance
	}

	b.processed[id] = true
	current := b.balancesToClaim[receiver]
	if current == nil {
		current = big.NewInt(0)
	}
	b.balancesToClaim[receiver] = new(big.Int).Add(current, amount)
	b.totalToClaim.Add(b.totalToClaim, amount)

	b.emit(types.EventCrossAccepted, types.CrossAccepted{
		Receiver:       receiver,
		Amount:         new(big.Int).Set(amount),
		Sender:         sender,
		FromBlockchain: fromBlockchain,
		BlockHash:      blockHash,
		TxHash:         txHash,
		LogIndex:       logIndex,
		TransactionID:  id,
	})

	b.logger.WithFields(logrus.Fields{
		"receiver":       receiver.Hex(),
		"amount":         amount.String(),
		"fromBlockchain": fromBlockchain,
		"transactionId":  id.Hex(),
	}).Info("Cross-chain transfer accepted")

	return nil
}

// Claim pays out the caller's accumulated claimable balance and zeroes it.
// Callable by anyone for themselves, even while paused: the pause switch
// never blocks committed funds. Returns the amount claimed.
func (b *Bridge) Claim(ctx context.Context, caller common.Address) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	balance := b.balancesToClaim[caller]
	if balance == nil || balance.Sign() == 0 {
		return nil, bridgeerrors.ErrNoBalanceToClaim
	}

	amount := new(big.Int).Set(balance)
	if err := b.token.Transfer(ctx, b.account, caller, amount); err != nil {
		return nil, errors.Wrap(err, "failed to transfer claimed tokens")
	}

	b.balancesToClaim[caller] = big.NewInt(0)
	b.totalToClaim.Sub(b.totalToClaim, amount)

	b.logger.WithFields(logrus.Fields{
		"receiver": caller.Hex(),
		"amount":   amount.String(),
	}).Info("Claim paid out")

	return amount, nil
}

// WithdrawToken moves amount tokens from the ledger to the owner. Owner
// only, allowed while paused. The withdrawal may never dip into funds
// earmarked for pending claims: amount must not exceed the token balance
// minus totalToClaim. This is the same invariant AcceptTransfer enforces,
// seen from the other direction.
func (b *Bridge) WithdrawToken(ctx context.Context, caller common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return bridgeerrors.ErrAmountZero
	}

	balance, err := b.token.BalanceOf(ctx, b.account)
	if err != nil {
		return errors.Wrap(err, "failed to get token balance")
	}
	uncommitted := new(big.Int).Sub(balance, b.totalToClaim)
	if uncommitted.Cmp(amount) < 0 {
		return bridgeerrors.ErrInsufficientBalance
	}

	if err := b.token.Transfer(ctx, b.account, caller, amount); err != nil {
		return errors.Wrap(err, "failed to transfer withdrawn tokens")
	}

	b.logger.WithFields(logrus.Fields{
		"owner":  caller.Hex(),
		"amount": amount.String(),
	}).Info("Owner withdrawal")

	return nil
}

// Processed reports whether the given transfer identifier has already been
// credited. The processed set is append-only for the life of the ledger.
func (b *Bridge) Processed(id common.Hash) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.processed[id]
}
