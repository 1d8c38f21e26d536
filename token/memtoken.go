package token

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// MemToken is an in-memory Token with standard transfer, approve and
// allowance semantics. It backs tests and local simulations of the
// two-sided bridge where no real chain is available.
type MemToken struct {
	address common.Address

	mu         sync.Mutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewMemToken creates an empty in-memory token with the given contract
// address.
func NewMemToken(address common.Address) *MemToken {
	return &MemToken{
		address:    address,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Address returns the token contract address.
func (t *MemToken) Address() common.Address {
	return t.address
}

// Mint credits amount to account out of thin air. Test helper, not part of
// the Token interface.
func (t *MemToken) Mint(account common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(account, amount)
}

// Approve lets spender move up to amount out of owner's balance. The
// allowance is overwritten, not accumulated.
func (t *MemToken) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

// BalanceOf returns the balance of the given account.
func (t *MemToken) BalanceOf(_ context.Context, account common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balanceOf(account)), nil
}

// Allowance returns the remaining allowance of spender over owner's funds.
func (t *MemToken) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.allowanceOf(owner, spender)), nil
}

// Transfer moves amount from from to to.
func (t *MemToken) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.balanceOf(from).Cmp(amount) < 0 {
		return errors.New("transfer amount exceeds balance")
	}

	t.debit(from, amount)
	t.credit(to, amount)
	return nil
}

// TransferFrom moves amount from owner to to, consuming spender's allowance.
func (t *MemToken) TransferFrom(_ context.Context, spender, owner, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowanceOf(owner, spender)
	if allowance.Cmp(amount) < 0 {
		return errors.New("transfer amount exceeds allowance")
	}
	if t.balanceOf(owner).Cmp(amount) < 0 {
		return errors.New("transfer amount exceeds balance")
	}

	t.allowances[owner][spender] = new(big.Int).Sub(allowance, amount)
	t.debit(owner, amount)
	t.credit(to, amount)
	return nil
}

func (t *MemToken) balanceOf(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return b
	}
	return big.NewInt(0)
}

func (t *MemToken) allowanceOf(owner, spender common.Address) *big.Int {
	if m, ok := t.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a
		}
	}
	return big.NewInt(0)
}

func (t *MemToken) credit(account common.Address, amount *big.Int) {
	t.balances[account] = new(big.Int).Add(t.balanceOf(account), amount)
}

func (t *MemToken) debit(account common.Address, amount *big.Int) {
	t.balances[account] = new(big.Int).Sub(t.balanceOf(account), amount)
}
