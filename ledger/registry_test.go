package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/brzbridge/ledger-lib/common/errors"
	"github.com/brzbridge/ledger-lib/common/types"
)

func TestAddBlockchain(t *testing.T) {
	b, _ := newTestBridge(t)

	assert.ErrorIs(t, b.AddBlockchain(anyAccount, "EthereumRinkeby", nil, nil), bridgeerrors.ErrNotOwner)

	require.NoError(t, b.AddBlockchain(owner, "EthereumRinkeby", big.NewInt(50000000000), big.NewInt(1000000)))
	assert.True(t, b.ExistsBlockchain("EthereumRinkeby"))

	minGas, err := b.GetMinGasPrice("EthereumRinkeby")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50000000000), minGas)

	minAmount, err := b.GetMinTokenAmount("EthereumRinkeby")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000), minAmount)

	assert.ErrorIs(t, b.AddBlockchain(owner, "EthereumRinkeby", nil, nil), bridgeerrors.ErrBlockchainExists)
	assert.ErrorIs(t, b.AddBlockchain(owner, "", nil, nil), bridgeerrors.ErrEmptyBlockchainName)
}

func TestGetBlockchain(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "EthereumRinkeby", big.NewInt(50000000000), big.NewInt(1000000)))

	entry, err := b.GetBlockchain("EthereumRinkeby")
	require.NoError(t, err)
	assert.Equal(t, "EthereumRinkeby", entry.Name)
	assert.Equal(t, big.NewInt(50000000000), entry.MinGasPrice)

	// The returned entry is a copy; mutating it must not touch the registry.
	entry.MinGasPrice.SetInt64(1)
	minGas, err := b.GetMinGasPrice("EthereumRinkeby")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(50000000000), minGas)

	_, err = b.GetBlockchain("NoBlockchain")
	assert.ErrorIs(t, err, bridgeerrors.ErrBlockchainNotFound)
}

func TestDelBlockchain(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "EthereumRinkeby", nil, nil))

	assert.ErrorIs(t, b.DelBlockchain(owner, "EthereumRinkeby"), bridgeerrors.ErrLastBlockchain)
	assert.ErrorIs(t, b.DelBlockchain(owner, "NoBlockchain"), bridgeerrors.ErrBlockchainNotFound)
	assert.ErrorIs(t, b.DelBlockchain(anyAccount, "EthereumRinkeby"), bridgeerrors.ErrNotOwner)

	require.NoError(t, b.AddBlockchain(owner, "RSKTestnet", nil, nil))
	require.NoError(t, b.DelBlockchain(owner, "EthereumRinkeby"))
	assert.False(t, b.ExistsBlockchain("EthereumRinkeby"))
}

func TestListBlockchainSwapAndPop(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "blockchainName", nil, nil))
	require.NoError(t, b.AddBlockchain(owner, "BinanceSmartChainTestnet", nil, nil))
	require.NoError(t, b.AddBlockchain(owner, "EthereumRinkeby", nil, nil))
	require.NoError(t, b.AddBlockchain(owner, "RSKTestnet", nil, nil))
	require.NoError(t, b.AddBlockchain(owner, "SolanaDevnet", nil, nil))
	require.NoError(t, b.DelBlockchain(owner, "blockchainName"))

	// Deleting swaps the last entry into the removed slot.
	assert.Equal(t, []string{"SolanaDevnet", "BinanceSmartChainTestnet", "EthereumRinkeby", "RSKTestnet"}, b.ListBlockchain())
}

func TestSetMinGasPrice(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "blockchainName", nil, nil))
	require.NoError(t, b.AddAdmin(owner, admin))

	assert.ErrorIs(t, b.SetMinGasPrice(anyAccount, "blockchainName", big.NewInt(20)), bridgeerrors.ErrNotAdmin)
	assert.ErrorIs(t, b.SetMinGasPrice(admin, "NoBlockchain", big.NewInt(20)), bridgeerrors.ErrBlockchainNotFound)

	require.NoError(t, b.SetMinGasPrice(admin, "blockchainName", big.NewInt(20)))
	value, err := b.GetMinGasPrice("blockchainName")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(20), value)

	events := b.Events()
	last := events[len(events)-1]
	assert.Equal(t, types.EventMinGasPriceChanged, last.Type)
	payload, ok := last.Payload.(types.MinValueChange)
	require.True(t, ok)
	assert.Equal(t, "blockchainName", payload.Blockchain)
	assert.Equal(t, big.NewInt(0), payload.OldValue)
	assert.Equal(t, big.NewInt(20), payload.NewValue)
}

func TestSetMinTokenAmount(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "blockchainName", nil, nil))
	require.NoError(t, b.AddAdmin(owner, admin))

	assert.ErrorIs(t, b.SetMinTokenAmount(anyAccount, "blockchainName", big.NewInt(1000000)), bridgeerrors.ErrNotAdmin)

	require.NoError(t, b.SetMinTokenAmount(admin, "blockchainName", big.NewInt(1000000)))
	value, err := b.GetMinTokenAmount("blockchainName")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000), value)

	events := b.Events()
	last := events[len(events)-1]
	assert.Equal(t, types.EventMinTokenAmountChanged, last.Type)
	payload, ok := last.Payload.(types.MinValueChange)
	require.True(t, ok)
	assert.Equal(t, big.NewInt(0), payload.OldValue)
	assert.Equal(t, big.NewInt(1000000), payload.NewValue)
}

func TestRegistryPauseGated(t *testing.T) {
	b, _ := newTestBridge(t)

	require.NoError(t, b.AddBlockchain(owner, "EthereumRinkeby", nil, nil))
	require.NoError(t, b.AddBlockchain(owner, "RSKTestnet", nil, nil))
	require.NoError(t, b.AddAdmin(owner, admin))
	require.NoError(t, b.Pause(owner))

	assert.ErrorIs(t, b.AddBlockchain(owner, "SolanaDevnet", nil, nil), bridgeerrors.ErrPaused)
	assert.ErrorIs(t, b.DelBlockchain(owner, "RSKTestnet"), bridgeerrors.ErrPaused)
	assert.ErrorIs(t, b.SetMinGasPrice(admin, "EthereumRinkeby", big.NewInt(1)), bridgeerrors.ErrPaused)
	assert.ErrorIs(t, b.SetMinTokenAmount(admin, "EthereumRinkeby", big.NewInt(1)), bridgeerrors.ErrPaused)
}
