package token

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// erc20ABI is the minimal ERC20 fragment the bridge needs: balance and
// allowance reads plus the two transfer entrypoints.
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transferFrom","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// ERC20 adapts an on-chain ERC20 contract to the Token interface over a
// JSON-RPC client. Reads go through eth_call; state-changing calls are
// signed with the configured private key, so Transfer and TransferFrom can
// only act for that key's account.
type ERC20 struct {
	client  *ethclient.Client
	address common.Address
	abi     abi.ABI
	chainID *big.Int
	key     *ecdsa.PrivateKey
	account common.Address
	logger  *logrus.Logger
}

// NewERC20 dials the RPC endpoint and binds the token contract at address.
// privateKeyHex may be empty for a read-only adapter.
func NewERC20(ctx context.Context, rpcURL string, address common.Address, privateKeyHex string, logger *logrus.Logger) (*ERC20, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create client")
	}

	tokenAbi, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse token ABI")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain id")
	}

	t := &ERC20{
		client:  client,
		address: address,
		abi:     tokenAbi,
		chainID: chainID,
		logger:  logger,
	}

	if privateKeyHex != "" {
		key, err := crypto.HexToECDSA(privateKeyHex)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse private key")
		}
		t.key = key
		t.account = crypto.PubkeyToAddress(key.PublicKey)
	}

	return t, nil
}

// Close releases the underlying RPC client.
func (t *ERC20) Close() {
	t.client.Close()
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address {
	return t.address
}

// BalanceOf returns the token balance of the given account.
func (t *ERC20) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return t.callUint(ctx, "balanceOf", account)
}

// Allowance returns the amount spender may move out of owner's balance.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callUint(ctx, "allowance", owner, spender)
}

// Transfer sends a transfer transaction. from must be the adapter's signing
// account.
func (t *ERC20) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	data, err := t.abi.Pack("transfer", to, amount)
	if err != nil {
		return errors.Wrap(err, "failed to pack transfer data")
	}
	return t.send(ctx, from, data)
}

// TransferFrom sends a transferFrom transaction. spender must be the
// adapter's signing account.
func (t *ERC20) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error {
	data, err := t.abi.Pack("transferFrom", owner, to, amount)
	if err != nil {
		return errors.Wrap(err, "failed to pack transferFrom data")
	}
	return t.send(ctx, spender, data)
}

func (t *ERC20) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	data, err := t.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to pack %s data", method)
	}

	result, err := t.client.CallContract(ctx, ethereum.CallMsg{
		To:   &t.address,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", method)
	}

	if len(result) == 0 {
		return nil, errors.Errorf("empty result from %s call", method)
	}

	return new(big.Int).SetBytes(result), nil
}

func (t *ERC20) send(ctx context.Context, from common.Address, data []byte) error {
	if t.key == nil {
		return errors.New("signer not configured")
	}
	if from != t.account {
		return errors.New("from is not the signing account")
	}

	nonce, err := t.client.PendingNonceAt(ctx, t.account)
	if err != nil {
		return errors.Wrap(err, "failed to get nonce")
	}

	gasPrice, err := t.client.SuggestGasPrice(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to get gas price")
	}

	estimatedGas, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From: t.account,
		To:   &t.address,
		Data: data,
	})
	if err != nil {
		return errors.Wrap(err, "failed to estimate gas")
	}
	gasLimit := uint64(float64(estimatedGas) * 1.1)

	tx := ethtypes.NewTransaction(nonce, t.address, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(t.chainID), t.key)
	if err != nil {
		return errors.Wrap(err, "failed to sign transaction")
	}

	if err := t.client.SendTransaction(ctx, signedTx); err != nil {
		return errors.Wrap(err, "failed to send transaction")
	}

	t.logger.WithFields(logrus.Fields{
		"token": t.address.Hex(),
		"tx":    signedTx.Hash().Hex(),
	}).Debug("Token transaction sent")

	return nil
}
