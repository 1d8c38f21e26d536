package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

// Blockchain registry facet. The registry is the set of chain names this
// deployment bridges with; it must never become empty once populated.
// ListBlockchain order is insertion order with swap-with-last-then-pop on
// deletion, so callers must treat the result as a set.

// AddBlockchain registers a destination/source chain with its initial
// minimums. Owner only, pause-gated. Emits BlockchainAdded.
func (b *Bridge) AddBlockchain(caller common.Address, name string, minGasPrice, minTokenAmount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if name == "" {
		return bridgeerrors.ErrEmptyBlockchainName
	}
	if _, exists := b.blockchains[name]; exists {
		return bridgeerrors.ErrBlockchainExists
	}

	if minGasPrice == nil {
		minGasPrice = big.NewInt(0)
	}
	if minTokenAmount == nil {
		minTokenAmount = big.NewInt(0)
	}

	b.blockchains[name] = &types.Blockchain{
		Name:           name,
		MinGasPrice:    new(big.Int).Set(minGasPrice),
		MinTokenAmount: new(big.Int).Set(minTokenAmount),
	}
	b.names = append(b.names, name)
	b.emit(types.EventBlockchainAdded, types.BlockchainChange{Name: name, Sender: caller})

	b.logger.WithField("blockchain", name).Info("Blockchain added")
	return nil
}

// DelBlockchain removes a chain from the registry. Owner only,
// pause-gated. Removing the last registered chain is rejected.
func (b *Bridge) DelBlockchain(caller common.Address, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleOwner, caller, bridgeerrors.ErrNotOwner); err != nil {
		return err
	}
	if _, exists := b.blockchains[name]; !exists {
		return bridgeerrors.ErrBlockchainNotFound
	}
	if len(b.names) <= 1 {
		return bridgeerrors.ErrLastBlockchain
	}

	for i, n := range b.names {
		if n == name {
			last := len(b.names) - 1
			b.names[i] = b.names[last]
			b.names = b.names[:last]
			break
		}
	}
	delete(b.blockchains, name)
	b.emit(types.EventBlockchainRemoved, types.BlockchainChange{Name: name, Sender: caller})

	b.logger.WithField("blockchain", name).Info("Blockchain removed")
	return nil
}

// ExistsBlockchain reports whether name is registered.
func (b *Bridge) ExistsBlockchain(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, exists := b.blockchains[name]
	return exists
}

// ListBlockchain returns the registered chain names.
func (b *Bridge) ListBlockchain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := make([]string, len(b.names))
	copy(names, b.names)
	return names
}

// GetBlockchain returns a copy of the registry entry for name.
func (b *Bridge) GetBlockchain(name string) (*types.Blockchain, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.blockchains[name]
	if !exists {
		return nil, bridgeerrors.ErrBlockchainNotFound
	}
	return entry.Clone(), nil
}

// GetMinGasPrice returns the minimum destination gas price for the chain.
func (b *Bridge) GetMinGasPrice(name string) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.blockchains[name]
	if !exists {
		return nil, bridgeerrors.ErrBlockchainNotFound
	}
	return new(big.Int).Set(entry.MinGasPrice), nil
}

// GetMinTokenAmount returns the minimum transferable amount for the chain.
func (b *Bridge) GetMinTokenAmount(name string) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, exists := b.blockchains[name]
	if !exists {
		return nil, bridgeerrors.ErrBlockchainNotFound
	}
	return new(big.Int).Set(entry.MinTokenAmount), nil
}

// SetMinGasPrice updates a chain's minimum gas price. Admin only,
// pause-gated. Emits MinGasPriceChanged with old and new values.
func (b *Bridge) SetMinGasPrice(caller common.Address, name string, value *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleAdmin, caller, bridgeerrors.ErrNotAdmin); err != nil {
		return err
	}
	entry, exists := b.blockchains[name]
	if !exists {
		return bridgeerrors.ErrBlockchainNotFound
	}

	old := entry.MinGasPrice
	entry.MinGasPrice = new(big.Int).Set(value)
	b.emit(types.EventMinGasPriceChanged, types.MinValueChange{
		Blockchain: name,
		OldValue:   old,
		NewValue:   new(big.Int).Set(value),
	})

	b.logger.WithFields(logrus.Fields{
		"blockchain": name,
		"old":        old.String(),
		"new":        value.String(),
	}).Info("Min gas price changed")
	return nil
}

// SetMinTokenAmount updates a chain's minimum transfer amount. Admin only,
// pause-gated. Emits MinTokenAmountChanged with old and new values.
func (b *Bridge) SetMinTokenAmount(caller common.Address, name string, value *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.requireNotPaused(); err != nil {
		return err
	}
	if err := b.requireRole(types.RoleAdmin, caller, bridgeerrors.ErrNotAdmin); err != nil {
		return err
	}
	entry, exists := b.blockchains[name]
	if !exists {
		return bridgeerrors.ErrBlockchainNotFound
	}

	old := entry.MinTokenAmount
	entry.MinTokenAmount = new(big.Int).Set(value)
	b.emit(types.EventMinTokenAmountChanged, types.MinValueChange{
		Blockchain: name,
		OldValue:   old,
		NewValue:   new(big.Int).Set(value),
	})

	b.logger.WithFields(logrus.Fields{
		"blockchain": name,
		"old":        old.String(),
		"new":        value.String(),
	}).Info("Min token amount changed")
	return nil
}
