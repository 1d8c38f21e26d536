package types

import "math/big"

// Blockchain is a registry entry for a chain this deployment will send
// tokens to or receive them from. Chains are identified by a human-readable
// unique name; the per-chain minimums are policy knobs tuned by admins.
type Blockchain struct {
	Name string

	// MinGasPrice is the smallest accepted destination gas price, in the
	// destination chain's minor fee unit (wei for EVM chains).
	MinGasPrice *big.Int

	// MinTokenAmount is the smallest transferable token amount to this
	// chain, in the token's minor unit.
	MinTokenAmount *big.Int
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (b *Blockchain) Clone() *Blockchain {
	return &Blockchain{
		Name:           b.Name,
		MinGasPrice:    new(big.Int).Set(b.MinGasPrice),
		MinTokenAmount: new(big.Int).Set(b.MinTokenAmount),
	}
}
