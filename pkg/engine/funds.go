package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// topUp refills child from its parent up to the highest acceptable balance
// once it drops below the lowest. A short parent sends what it has.
func (e *Engine) topUp(child *node, now int64) (uint64, error) {
	if child.isRoot() || !child.initialized || child.canceled {
		return 0, nil
	}

	balance := child.vault.Balance()
	if balance >= child.limits.LowestAcceptableBalance {
		return 0, nil
	}

	parent := e.nodes[child.parent]
	amount := child.limits.HighestAcceptableBalance - balance
	if available := parent.vault.Balance(); available < amount {
		amount = available
	}

	if amount == 0 {
		return 0, nil
	}

	if err := parent.vault.Withdraw(child.vault.Address(), amount); err != nil {
		return 0, err
	}

	e.emit(entities.Event{Kind: consts.TopUpVault, VaultID: child.id, Timestamp: now, Amount: amount})

	return amount, nil
}

// TopUp asks the parent of id to refill it. Roots have nobody to ask.
func (e *Engine) TopUp(id int, now int64) (uint64, error) {
	n, err := e.get(id)
	if err != nil {
		return 0, err
	}

	if err := checkLive(n); err != nil {
		return 0, err
	}

	if !n.initialized {
		return 0, fmt.Errorf("%w: vault %d", ErrNotInitialized, id)
	}

	return e.topUp(n, now)
}

// SendBackOverflow returns everything above the highest acceptable balance
// to the parent vault, or the root's sink. Anyone may trim a child vault, a
// root only drains to its sink on request of the owner or the escape hatch
// caller.
func (e *Engine) SendBackOverflow(id int, caller string, now int64) (uint64, error) {
	n, err := e.get(id)
	if err != nil {
		return 0, err
	}

	if err := checkLive(n); err != nil {
		return 0, err
	}

	if n.isRoot() && caller != n.owner && caller != n.root.EscapeHatchCaller {
		return 0, fmt.Errorf("%w: %s cannot return the overflow of root vault %d", ErrNotOwner, caller, id)
	}

	if !n.initialized {
		return 0, fmt.Errorf("%w: vault %d", ErrNotInitialized, id)
	}

	balance := n.vault.Balance()
	if balance <= n.limits.HighestAcceptableBalance {
		return 0, nil
	}

	excess := balance - n.limits.HighestAcceptableBalance
	destination := e.sink(n)
	if err := n.vault.Withdraw(destination, excess); err != nil {
		return 0, err
	}

	e.emit(entities.Event{Kind: consts.OverflowReturned, VaultID: id, Timestamp: now, Address: destination, Amount: excess})

	return excess, nil
}

// Deposit credits the vault of id with funds from outside the tree.
func (e *Engine) Deposit(id int, now int64, amount uint64) error {
	n, err := e.get(id)
	if err != nil {
		return err
	}

	if err := checkLive(n); err != nil {
		return err
	}

	if err := n.vault.Deposit(amount); err != nil {
		return err
	}
	e.emit(entities.Event{Kind: consts.Deposit, VaultID: id, Timestamp: now, Amount: amount})

	return nil
}

// EscapeHatch moves the whole root balance to the escape hatch destination.
// Only the owner or the escape hatch caller may pull it.
func (e *Engine) EscapeHatch(id int, caller string, now int64) (uint64, error) {
	n, err := e.get(id)
	if err != nil {
		return 0, err
	}

	if !n.isRoot() {
		return 0, fmt.Errorf("%w: escape hatch only exists on root vaults", ErrNotOwner)
	}

	if caller != n.owner && caller != n.root.EscapeHatchCaller {
		return 0, fmt.Errorf("%w: %s cannot call the escape hatch of vault %d", ErrNotOwner, caller, id)
	}

	amount := n.vault.Balance()
	if amount > 0 {
		if err := n.vault.Withdraw(n.root.EscapeHatchDestination, amount); err != nil {
			return 0, err
		}
	}

	e.emit(entities.Event{
		Kind: consts.EscapeHatchCalled, VaultID: id, Timestamp: now, Address: n.root.EscapeHatchDestination, Amount: amount,
	})

	return amount, nil
}
