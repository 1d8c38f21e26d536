package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

// Fee and accounting engine. All arithmetic is integer arithmetic with
// truncating division so results are bit-exact across deployments; the
// bridge fee uses DecimalPercent as its fixed accuracy denominator.

var weiPerEther = big.NewInt(params.Ether)

// bridgeFee must be called with the mutex held.
// bridgeFee = floor(amount * feePercentage / DecimalPercent).
func (b *Bridge) bridgeFee(amount *big.Int) *big.Int {
	fee := new(big.Int).Mul(amount, b.feePercentage)
	return fee.Div(fee, big.NewInt(DecimalPercent))
}

// minBRZFee must be called with the mutex held. It converts the
// destination chain's native cost of accepting a transfer into the bridge
// token's unit:
//
//	minBRZFee = (minGasPrice * gasAcceptTransfer / 1e18) * quoteETH_BRZ
//
// computed as a single product divided once, so precision is only lost in
// the final truncation.
func (b *Bridge) minBRZFee(entry *types.Blockchain) *big.Int {
	fee := new(big.Int).Mul(entry.MinGasPrice, b.gasAcceptTransfer)
	fee.Mul(fee, b.quoteETHBRZ)
	return fee.Div(fee, weiPerEther)
}

// GetMinBRZFee returns the minimum destination fee, in the bridge token's
// minor unit, required for a transfer to the given chain. Advisory floor:
// ReceiveTokens rejects sender-supplied fees below it.
func (b *Bridge) GetMinBRZFee(name string) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.blockchains[name]
	if !exists {
		return nil, bridgeerrors.ErrBlockchainNotFound
	}
	return b.minBRZFee(entry), nil
}

// GetFeePercentageBridge returns the current bridge fee percentage, in
// DecimalPercent units.
func (b *Bridge) GetFeePercentageBridge() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.feePercentage)
}

// SetFeePercentageBridge updates the bridge fee percentage. Owner only,
// pause-gated. Emits FeePercentageBridgeChanged with old and new values.
func (b *Bridge) SetFeePercentageBridge(caller common.Address, value *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}

	old := b.feePercentage
	b.feePercentage = new(big.Int).Set(value)
	b.emit(types.EventFeePercentageChanged, types.ValueChange{
		OldValue: old,
		NewValue: new(big.Int).Set(value),
	})
	return nil
}

// GetQuoteETHBRZ returns the configured ETH-to-token quote.
func (b *Bridge) GetQuoteETHBRZ() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.quoteETHBRZ)
}

// SetQuoteETHBRZ updates the ETH-to-token quote used to denominate
// destination gas costs in the bridge token. Admin only, pause-gated.
// Emits QuoteETH_BRZChanged with old and new values.
func (b *Bridge) SetQuoteETHBRZ(caller common.Address, value *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleAdmin, caller, bridgeerrors.ErrNotAdmin); err != nil {
		return err
	}

	old := b.quoteETHBRZ
	b.quoteETHBRZ = new(big.Int).Set(value)
	b.emit(types.EventQuoteETHBRZChanged, types.ValueChange{
		OldValue: old,
		NewValue: new(big.Int).Set(value),
	})
	return nil
}

// GetGasAcceptTransfer returns the configured gas estimate of a
// destination-side AcceptTransfer call.
func (b *Bridge) GetGasAcceptTransfer() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.gasAcceptTransfer)
}

// SetGasAcceptTransfer updates the AcceptTransfer gas estimate. Owner
// only, pause-gated. Emits GasAcceptTransferChanged with old and new
// values.
func (b *Bridge) SetGasAcceptTransfer(caller common.Address, value *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}

	old := b.gasAcceptTransfer
	b.gasAcceptTransfer = new(big.Int).Set(value)
	b.emit(types.EventGasAcceptTransferChanged, types.ValueChange{
		OldValue: old,
		NewValue: new(big.Int).Set(value),
	})
	return nil
}

// GetTotalFeeReceivedBridge returns the cumulative bridge fees retained.
func (b *Bridge) GetTotalFeeReceivedBridge() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.totalFeeReceived)
}

// GetTotalToClaim returns the sum of all claimable balances not yet
// withdrawn.
func (b *Bridge) GetTotalToClaim() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.totalToClaim)
}

// GetBalanceToClaim returns the accumulated claimable balance of receiver.
func (b *Bridge) GetBalanceToClaim(receiver common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if balance, ok := b.balancesToClaim[receiver]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}
