package token

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger is an in-memory fungible-token ledger with ERC-20 transfer and
// allowance semantics. It backs tests and the local gateway mode; a real
// deployment points the gateway at an external token service instead.
type Ledger struct {
	mu         sync.Mutex
	balances   map[common.Address]*uint256.Int
	allowances map[common.Address]map[common.Address]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Mint credits newly created units to addr.
func (l *Ledger) Mint(addr common.Address, amount *uint256.Int) error {
	if addr == (common.Address{}) {
		return ErrZeroRecipient
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(addr, amount)
	return nil
}

// Approve sets spender's allowance over owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*uint256.Int)
	}
	l.allowances[owner][spender] = amount.Clone()
}

// Allowance returns the remaining amount spender may pull from owner.
func (l *Ledger) Allowance(owner, spender common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a := l.allowances[owner][spender]; a != nil {
		return a.Clone()
	}
	return uint256.NewInt(0)
}

// BalanceOf returns addr's current balance.
func (l *Ledger) BalanceOf(addr common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b := l.balances[addr]; b != nil {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// Transfer moves amount from one account to another.
func (l *Ledger) Transfer(from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount out of from on behalf of spender, consuming
// spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// A missing allowance entry is an allowance of zero, so pulling a zero
	// amount always succeeds.
	allowance := l.allowances[from][spender]
	if allowance == nil {
		allowance = uint256.NewInt(0)
	}
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

// move assumes the lock is held.
func (l *Ledger) move(from, to common.Address, amount *uint256.Int) error {
	if to == (common.Address{}) {
		return ErrZeroRecipient
	}
	// A missing balance entry is a balance of zero; zero-amount transfers
	// succeed from any account, matching ERC-20 semantics.
	balance := l.balances[from]
	if balance == nil {
		balance = uint256.NewInt(0)
	}
	if balance.Lt(amount) {
		return ErrInsufficientBalance
	}
	l.balances[from] = new(uint256.Int).Sub(balance, amount)
	l.credit(to, amount)
	return nil
}

// credit assumes the lock is held.
func (l *Ledger) credit(addr common.Address, amount *uint256.Int) {
	if b := l.balances[addr]; b != nil {
		l.balances[addr] = new(uint256.Int).Add(b, amount)
		return
	}
	l.balances[addr] = amount.Clone()
}

// LedgerGateway adapts a Ledger to the Gateway interface, acting as the
// treasury account: pushes originate from it, pulls consume allowances
// granted to it.
type LedgerGateway struct {
	ledger   *Ledger
	treasury common.Address
}

func NewLedgerGateway(ledger *Ledger, treasury common.Address) *LedgerGateway {
	return &LedgerGateway{ledger: ledger, treasury: treasury}
}

func (g *LedgerGateway) BalanceOf(_ context.Context, addr common.Address) (*uint256.Int, error) {
	return g.ledger.BalanceOf(addr), nil
}

func (g *LedgerGateway) Transfer(_ context.Context, to common.Address, amount *uint256.Int) error {
	return g.ledger.Transfer(g.treasury, to, amount)
}

func (g *LedgerGateway) TransferFrom(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	return g.ledger.TransferFrom(g.treasury, from, to, amount)
}
