package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// Initialize configures a root controller. Children are initialized through
// InitializeChildVault on their parent.
func (e *Engine) Initialize(id int, caller string, now int64, limits entities.Limits) error {
	n, err := e.get(id)
	if err != nil {
		return err
	}

	if !n.isRoot() {
		return fmt.Errorf("%w: vault %d is initialized by its parent", ErrNotOwner, id)
	}

	if err := checkOwner(n, caller); err != nil {
		return err
	}

	if err := checkLive(n); err != nil {
		return err
	}

	if n.initialized {
		return fmt.Errorf("%w: vault %d", ErrAlreadyInitialized, id)
	}

	if err := validateLimits(limits); err != nil {
		return err
	}

	n.limits = limits
	n.initialized = true
	e.emit(entities.Event{Kind: consts.VaultInitialized, VaultID: id, Timestamp: now, Limits: &limits})

	return nil
}

// SetVaultLimits replaces the limits of a root controller.
func (e *Engine) SetVaultLimits(id int, caller string, now int64, limits entities.Limits) error {
	n, err := e.get(id)
	if err != nil {
		return err
	}

	if !n.isRoot() {
		return fmt.Errorf("%w: limits of vault %d are set by its parent", ErrNotOwner, id)
	}

	if err := checkOwner(n, caller); err != nil {
		return err
	}

	if err := checkLive(n); err != nil {
		return err
	}

	if !n.initialized {
		return fmt.Errorf("%w: vault %d", ErrNotInitialized, id)
	}

	if err := validateLimits(limits); err != nil {
		return err
	}

	n.limits = limits
	e.emit(entities.Event{Kind: consts.VaultsLimitChanged, VaultID: id, Timestamp: now, Limits: &limits})

	return nil
}

// CreateChildVault appends an uninitialized child and returns its index and id.
func (e *Engine) CreateChildVault(id int, caller string, now int64, name string) (entities.ChildVault, error) {
	n, err := e.get(id)
	if err != nil {
		return entities.ChildVault{}, err
	}

	if err := checkOwner(n, caller); err != nil {
		return entities.ChildVault{}, err
	}

	if err := checkLive(n); err != nil {
		return entities.ChildVault{}, err
	}

	if len(n.children) >= consts.MaxChildren {
		return entities.ChildVault{}, fmt.Errorf("%w: vault %d has %d", ErrTooManyChildren, id, len(n.children))
	}

	if n.generation >= consts.MaxGenerations {
		return entities.ChildVault{}, fmt.Errorf("%w: vault %d is generation %d", ErrTooDeep, id, n.generation)
	}

	child := e.allocate(name, n.owner, n.id, n.generation+1)
	index := len(n.children)
	n.children = append(n.children, child.id)

	e.emit(entities.Event{Kind: consts.NewVault, VaultID: id, Timestamp: now, Index: index, ChildID: child.id, Name: name})

	return entities.ChildVault{ParentID: id, Index: index, ID: child.id}, nil
}

// InitializeChildVault configures the child at index, hands it to admin and
// tops it up from the parent.
func (e *Engine) InitializeChildVault(
	parentID int, caller string, now int64, index int, admin string, limits entities.Limits,
) error {
	parent, child, err := e.parentAndChild(parentID, caller, index)
	if err != nil {
		return err
	}

	if child.initialized {
		return fmt.Errorf("%w: vault %d", ErrAlreadyInitialized, child.id)
	}

	if err := validateLimits(limits); err != nil {
		return err
	}

	if err := validateAgainstParent(limits, parent.limits); err != nil {
		return err
	}

	child.limits = limits
	child.initialized = true
	if admin != "" {
		child.owner = admin
	}

	e.emit(entities.Event{
		Kind: consts.VaultInitialized, VaultID: child.id, Timestamp: now, Address: child.owner, Limits: &limits,
	})

	_, err = e.topUp(child, now)
	return err
}

// SetChildVaultLimits re-validates the child against the parent's limits as
// they are now and tops the child up if it became under-funded.
func (e *Engine) SetChildVaultLimits(parentID int, caller string, now int64, index int, limits entities.Limits) error {
	parent, child, err := e.parentAndChild(parentID, caller, index)
	if err != nil {
		return err
	}

	if !child.initialized {
		return fmt.Errorf("%w: vault %d", ErrNotInitialized, child.id)
	}

	if err := validateLimits(limits); err != nil {
		return err
	}

	if err := validateAgainstParent(limits, parent.limits); err != nil {
		return err
	}

	child.limits = limits
	e.emit(entities.Event{Kind: consts.VaultsLimitChanged, VaultID: child.id, Timestamp: now, Limits: &limits})

	_, err = e.topUp(child, now)
	return err
}

func (e *Engine) parentAndChild(parentID int, caller string, index int) (*node, *node, error) {
	parent, err := e.get(parentID)
	if err != nil {
		return nil, nil, err
	}

	if err := checkOwner(parent, caller); err != nil {
		return nil, nil, err
	}

	if err := checkLive(parent); err != nil {
		return nil, nil, err
	}

	if !parent.initialized {
		return nil, nil, fmt.Errorf("%w: vault %d", ErrNotInitialized, parentID)
	}

	child, err := e.child(parent, index)
	if err != nil {
		return nil, nil, err
	}

	if err := checkLive(child); err != nil {
		return nil, nil, err
	}

	return parent, child, nil
}
