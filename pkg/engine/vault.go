package engine

import (
	"fmt"
	"math"
	"sync"
)

// Vault holds a balance on behalf of a single vault controller.
type Vault interface {
	Address() string
	Balance() uint64
	Deposit(amount uint64) error
	Withdraw(destination string, amount uint64) error
}

// Ledger creates vaults and resolves balances of any address.
type Ledger interface {
	NewVault() Vault
	Attach(address string) Vault
	Balance(address string) uint64
}

// LedgerSnapshot is the persisted form of a MemoryLedger.
type LedgerSnapshot struct {
	Accounts map[string]uint64 `json:"accounts"`
	Seq      int               `json:"seq"`
}

// MemoryLedger keeps every account in memory. Vaults are accounts it created,
// any other address is an external account that can only receive funds.
type MemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]uint64
	seq      int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{accounts: make(map[string]uint64)}
}

func (l *MemoryLedger) NewVault() Vault {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	address := fmt.Sprintf("vault-%d", l.seq)
	l.accounts[address] = 0

	return &ledgerVault{ledger: l, address: address}
}

func (l *MemoryLedger) Attach(address string) Vault {
	return &ledgerVault{ledger: l, address: address}
}

func (l *MemoryLedger) Balance(address string) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[address]
}

func (l *MemoryLedger) Snapshot() LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make(map[string]uint64, len(l.accounts))
	for address, balance := range l.accounts {
		accounts[address] = balance
	}

	return LedgerSnapshot{Accounts: accounts, Seq: l.seq}
}

func (l *MemoryLedger) Restore(s LedgerSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.accounts = make(map[string]uint64, len(s.Accounts))
	for address, balance := range s.Accounts {
		l.accounts[address] = balance
	}
	l.seq = s.Seq
}

func (l *MemoryLedger) transfer(from, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.accounts[from] < amount {
		return fmt.Errorf("%w: %s holds %d, %d requested", ErrInsufficientFunds, from, l.accounts[from], amount)
	}
	if from != to {
		if err := checkCredit(to, l.accounts[to], amount); err != nil {
			return err
		}
	}

	l.accounts[from] -= amount
	l.accounts[to] += amount

	return nil
}

type ledgerVault struct {
	ledger  *MemoryLedger
	address string
}

func (v *ledgerVault) Address() string {
	return v.address
}

func (v *ledgerVault) Balance() uint64 {
	return v.ledger.Balance(v.address)
}

func (v *ledgerVault) Deposit(amount uint64) error {
	v.ledger.mu.Lock()
	defer v.ledger.mu.Unlock()

	if err := checkCredit(v.address, v.ledger.accounts[v.address], amount); err != nil {
		return err
	}
	v.ledger.accounts[v.address] += amount

	return nil
}

func (v *ledgerVault) Withdraw(destination string, amount uint64) error {
	return v.ledger.transfer(v.address, destination, amount)
}

func checkCredit(address string, balance, amount uint64) error {
	if balance > math.MaxUint64-amount {
		return fmt.Errorf("%w: %s holds %d, %d credited", ErrBalanceOverflow, address, balance, amount)
	}
	return nil
}
