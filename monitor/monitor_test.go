package monitor

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brzbridge/ledger-lib/common/types"
	"github.com/brzbridge/ledger-lib/ledger"
	"github.com/brzbridge/ledger-lib/token"
)

var (
	owner       = common.HexToAddress("0x3000000000000000000000000000000000000003")
	monitorAcct = common.HexToAddress("0x5000000000000000000000000000000000000005")
	sender      = common.HexToAddress("0x6000000000000000000000000000000000000006")
	receiver    = common.HexToAddress("0x7000000000000000000000000000000000000007")
	receiver2   = common.HexToAddress("0x8000000000000000000000000000000000000008")

	srcAccount  = common.HexToAddress("0x2000000000000000000000000000000000000002")
	destAccount = common.HexToAddress("0x2100000000000000000000000000000000000012")
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newBridgePair builds two in-process ledgers wired as the two ends of a
// bridge: the source knows the destination chain by name and vice versa,
// and the destination holds liquidity and trusts monitorAcct.
func newBridgePair(t *testing.T) (*ledger.Bridge, *ledger.Bridge, *token.MemToken) {
	t.Helper()

	srcTok := token.NewMemToken(common.HexToAddress("0x1000000000000000000000000000000000000001"))
	src, err := ledger.New(srcTok, srcAccount, owner, ledger.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, src.AddBlockchain(owner, "RSKTestnet", big.NewInt(0), big.NewInt(0)))

	srcTok.Mint(sender, big.NewInt(10000000))
	srcTok.Approve(sender, srcAccount, big.NewInt(10000000))

	destTok := token.NewMemToken(common.HexToAddress("0x1100000000000000000000000000000000000011"))
	dest, err := ledger.New(destTok, destAccount, owner, ledger.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.NoError(t, dest.AddBlockchain(owner, "EthereumRinkeby", big.NewInt(0), big.NewInt(0)))
	require.NoError(t, dest.AddMonitor(owner, monitorAcct))
	destTok.Mint(destAccount, big.NewInt(10000000))

	return src, dest, destTok
}

func testConfig() Config {
	return Config{
		Identity:         monitorAcct,
		SourceBlockchain: "EthereumRinkeby",
		DestBlockchain:   "RSKTestnet",
	}
}

func crossTxContext(logIndex uint) types.TxContext {
	return types.TxContext{
		BlockHash: common.HexToHash("0xaa00000000000000000000000000000000000000000000000000000000000001"),
		TxHash:    common.HexToHash("0xbb00000000000000000000000000000000000000000000000000000000000002"),
		LogIndex:  logIndex,
	}
}

func TestNewValidation(t *testing.T) {
	src, dest, _ := newBridgePair(t)

	_, err := New(testConfig(), nil, dest, quietLogger())
	assert.Error(t, err)

	_, err = New(testConfig(), src, nil, quietLogger())
	assert.Error(t, err)

	config := testConfig()
	config.SourceBlockchain = ""
	_, err = New(config, src, dest, quietLogger())
	assert.Error(t, err)

	m, err := New(testConfig(), src, dest, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestRelayEndToEnd(t *testing.T) {
	src, dest, _ := newBridgePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := New(testConfig(), src, dest, quietLogger())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver.Hex(), crossTxContext(0))
	require.NoError(t, err)

	// The 0.1% source-side fee is deducted before the intent travels.
	require.Eventually(t, func() bool {
		return dest.GetBalanceToClaim(receiver).Cmp(big.NewInt(1998000)) == 0
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRelaysIntentsEmittedBeforeRun(t *testing.T) {
	src, dest, _ := newBridgePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One intent before the monitor exists, one between construction and
	// Run. Both must come through: the first from the journal replay, the
	// second from the subscription registered at construction.
	_, err := src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver.Hex(), crossTxContext(0))
	require.NoError(t, err)

	m, err := New(testConfig(), src, dest, quietLogger())
	require.NoError(t, err)

	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver2.Hex(), crossTxContext(1))
	require.NoError(t, err)

	go m.Run(ctx)

	require.Eventually(t, func() bool {
		return dest.GetBalanceToClaim(receiver).Cmp(big.NewInt(1998000)) == 0 &&
			dest.GetBalanceToClaim(receiver2).Cmp(big.NewInt(1998000)) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRelayDuplicateDelivery(t *testing.T) {
	src, dest, _ := newBridgePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := New(testConfig(), src, dest, quietLogger())
	require.NoError(t, err)

	go m.Run(ctx)

	// The same source-chain log observed twice must credit exactly once.
	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver.Hex(), crossTxContext(7))
	require.NoError(t, err)
	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver.Hex(), crossTxContext(7))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dest.GetBalanceToClaim(receiver).Sign() > 0
	}, 5*time.Second, 10*time.Millisecond)

	// Both deliveries share one transfer identifier, so the destination
	// ledger can never credit the second no matter when it lands.
	assert.Equal(t, big.NewInt(1998000), dest.GetBalanceToClaim(receiver))
}

func TestIgnoresOtherDestinations(t *testing.T) {
	src, dest, _ := newBridgePair(t)
	require.NoError(t, src.AddBlockchain(owner, "SolanaDevnet", big.NewInt(0), big.NewInt(0)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := New(testConfig(), src, dest, quietLogger())
	require.NoError(t, err)

	go m.Run(ctx)

	// An intent for another chain followed by a marker for ours. Events
	// are examined in order, so once the marker is credited the foreign
	// intent has already been inspected and skipped.
	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "SolanaDevnet", receiver.Hex(), crossTxContext(0))
	require.NoError(t, err)
	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver2.Hex(), crossTxContext(1))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dest.GetBalanceToClaim(receiver2).Sign() > 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, big.NewInt(0), dest.GetBalanceToClaim(receiver))
}

func TestRelayWithConfirmationDelay(t *testing.T) {
	src, dest, _ := newBridgePair(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := testConfig()
	config.ConfirmationDelay = 20 * time.Millisecond

	m, err := New(config, src, dest, quietLogger())
	require.NoError(t, err)

	go m.Run(ctx)

	_, err = src.ReceiveTokens(ctx, sender, big.NewInt(2000000), types.TransferFee{}, "RSKTestnet", receiver.Hex(), crossTxContext(0))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return dest.GetBalanceToClaim(receiver).Cmp(big.NewInt(1998000)) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
