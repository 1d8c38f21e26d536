package types

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TxContext carries the source-chain emission context of a ledger call.
// On a blockchain these fields are properties of the transaction that runs
// the contract; here the host executing the call supplies them, and
// ReceiveTokens copies them verbatim into the emitted CrossRequest so the
// monitor can replay them into AcceptTransfer on the destination chain.
type TxContext struct {
	BlockHash common.Hash
	TxHash    common.Hash
	LogIndex  uint
}

// TransferFee is the fee pair the sender supplies to ReceiveTokens,
// matching the original transactionFee array: the destination-side fee
// denominated in the bridge token, and the destination gas price.
type TransferFee struct {
	// DestinationFee covers the destination chain's cost of crediting the
	// transfer, in the bridge token's minor unit. Must be at least the
	// ledger's computed minimum for the destination chain.
	DestinationFee *big.Int

	// GasPrice is the destination-chain gas price the sender is paying
	// for, in the destination chain's minor fee unit.
	GasPrice *big.Int
}

// TransactionID derives the deterministic identifier used as the
// idempotency key for AcceptTransfer: keccak256 over the packed source
// block hash, source transaction hash, receiver, amount (left-padded to 32
// bytes) and log index. The first acceptance of an identifier wins;
// replays are rejected.
func TransactionID(blockHash, txHash common.Hash, receiver common.Address, amount *big.Int, logIndex uint) common.Hash {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(logIndex))

	return crypto.Keccak256Hash(
		blockHash.Bytes(),
		txHash.Bytes(),
		receiver.Bytes(),
		common.LeftPadBytes(amount.Bytes(), 32),
		idx[:],
	)
}
