package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

func (e *Engine) ownedLive(id int, caller string) (*node, error) {
	n, err := e.get(id)
	if err != nil {
		return nil, err
	}

	if err := checkOwner(n, caller); err != nil {
		return nil, err
	}

	if err := checkLive(n); err != nil {
		return nil, err
	}

	return n, nil
}

// AuthorizeSpender registers address as a spender of the vault, or updates
// it in place when it is already known. It returns the spender id.
func (e *Engine) AuthorizeSpender(
	id int, caller string, now int64, name, address string, limits entities.SpenderLimits,
) (int, error) {
	n, err := e.ownedLive(id, caller)
	if err != nil {
		return 0, err
	}

	if !n.initialized {
		return 0, fmt.Errorf("%w: vault %d", ErrNotInitialized, id)
	}

	if err := validateSpenderLimits(limits, n.limits); err != nil {
		return 0, err
	}

	s, created := n.registry.upsert(name, address, limits)
	if created {
		e.emit(entities.Event{
			Kind:          consts.SpenderAuthorized,
			VaultID:       id,
			Timestamp:     now,
			Index:         s.id,
			Name:          name,
			Address:       address,
			SpenderLimits: &limits,
		})
	}

	return s.id, nil
}

func (e *Engine) RemoveAuthorizedSpender(id int, caller string, now int64, address string) error {
	n, err := e.ownedLive(id, caller)
	if err != nil {
		return err
	}

	s, ok := n.registry.active(address)
	if !ok {
		return fmt.Errorf("%w: spender %s", ErrNotFound, address)
	}

	s.active = false
	e.emit(entities.Event{Kind: consts.SpenderRemoved, VaultID: id, Timestamp: now, Index: s.id, Address: address})

	return nil
}

// AuthorizeRecipient whitelists recipient for spender. The recipient becomes
// usable once the vault's whitelist timelock has elapsed. A removed recipient
// is re-armed with a fresh timelock.
func (e *Engine) AuthorizeRecipient(
	id int, caller string, now int64, spenderAddr, recipientAddr, name string,
) (int, error) {
	n, err := e.ownedLive(id, caller)
	if err != nil {
		return 0, err
	}

	s, ok := n.registry.active(spenderAddr)
	if !ok {
		return 0, fmt.Errorf("%w: spender %s", ErrNotFound, spenderAddr)
	}

	activation := now + n.limits.WhiteListTimelock

	r, ok := s.recipient(recipientAddr)
	switch {
	case ok && r.active:
		return r.id, nil
	case ok:
		r.name = name
		r.activationTime = activation
		r.active = true
	default:
		r = s.addRecipient(name, recipientAddr, activation)
	}

	e.emit(entities.Event{
		Kind:      consts.RecipientAuthorized,
		VaultID:   id,
		Timestamp: now,
		Index:     r.id,
		Name:      name,
		Address:   recipientAddr,
		Spender:   spenderAddr,
	})

	return r.id, nil
}

func (e *Engine) RemoveAuthorizedRecipient(id int, caller string, now int64, spenderAddr, recipientAddr string) error {
	n, err := e.ownedLive(id, caller)
	if err != nil {
		return err
	}

	s, ok := n.registry.active(spenderAddr)
	if !ok {
		return fmt.Errorf("%w: spender %s", ErrNotFound, spenderAddr)
	}

	r, ok := s.recipient(recipientAddr)
	if !ok || !r.active {
		return fmt.Errorf("%w: recipient %s", ErrNotFound, recipientAddr)
	}

	r.active = false
	e.emit(entities.Event{
		Kind: consts.RecipientRemoved, VaultID: id, Timestamp: now, Index: r.id, Address: recipientAddr, Spender: spenderAddr,
	})

	return nil
}
