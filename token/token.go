// Package token defines the fungible token collaborator the bridge ledger
// moves balances on. The ledger never mints or burns; it only queries
// balances and moves existing ones, so the surface is the usual ERC20
// subset seen from a single caller's perspective.
package token

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the external token collaborator.
//
// The ledger calls TransferFrom with itself as spender to pull pre-approved
// funds from a sender, and Transfer with its own account as from to pay out
// claims and withdrawals.
type Token interface {
	// Address returns the token contract address.
	Address() common.Address

	// BalanceOf returns the balance of the given account.
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)

	// Allowance returns the amount spender may move out of owner's balance.
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	// Transfer moves amount from from to to. Fails if from's balance is
	// insufficient.
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error

	// TransferFrom moves amount from owner to to on behalf of spender,
	// consuming spender's allowance. Fails on insufficient balance or
	// allowance.
	TransferFrom(ctx context.Context, spender, owner, to common.Address, amount *big.Int) error
}
