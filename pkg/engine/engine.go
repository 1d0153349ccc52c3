package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// NoParent is the parent id of root controllers.
const NoParent = -1

// RootOptions configures where a root controller sends funds it gives up.
type RootOptions struct {
	EscapeHatchCaller      string `json:"escape_hatch_caller"`
	EscapeHatchDestination string `json:"escape_hatch_destination"`
	ParentVault            string `json:"parent_vault,omitempty"`
	BaseToken              string `json:"base_token,omitempty"`
}

type node struct {
	id           int
	parent       int
	generation   int
	name         string
	owner        string
	vault        Vault
	limits       entities.Limits
	counter      DayBucket
	initialized  bool
	canceled     bool
	children     []int
	cancelCursor int
	registry     registry
	payments     []entities.Payment
	root         RootOptions
}

func (n *node) isRoot() bool {
	return n.parent == NoParent
}

func (n *node) caps() DailyCaps {
	return DailyCaps{
		DailyAmount: n.limits.DailyAmountLimit,
		DailyTxn:    n.limits.DailyTxnLimit,
		TxnAmount:   n.limits.TxnAmountLimit,
	}
}

func (n *node) window() TimeWindow {
	return TimeWindow{Opening: n.limits.OpeningTime, Closing: n.limits.ClosingTime}
}

// Engine is the arena of every vault controller. It is not safe for
// concurrent use; callers serialize operations.
type Engine struct {
	ledger Ledger
	nodes  []*node
	events []entities.Event
}

func New(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

func (e *Engine) allocate(name, owner string, parent, generation int) *node {
	n := &node{
		id:         len(e.nodes),
		parent:     parent,
		generation: generation,
		name:       name,
		owner:      owner,
		vault:      e.ledger.NewVault(),
		limits:     entities.Limits{ClosingTime: consts.SecondsPerDay},
		registry:   newRegistry(),
	}
	e.nodes = append(e.nodes, n)
	return n
}

// NewRootController allocates an uninitialized generation 1 controller.
func (e *Engine) NewRootController(name, owner string, opts RootOptions) (int, error) {
	if opts.EscapeHatchDestination == "" {
		return 0, ErrNoEscapeHatch
	}

	n := e.allocate(name, owner, NoParent, 1)
	n.root = opts

	return n.id, nil
}

func (e *Engine) get(id int) (*node, error) {
	if id < 0 || id >= len(e.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownVault, id)
	}
	return e.nodes[id], nil
}

func (e *Engine) rootOf(n *node) *node {
	for !n.isRoot() {
		n = e.nodes[n.parent]
	}
	return n
}

// sink is where a controller returns funds it no longer needs.
func (e *Engine) sink(n *node) string {
	if !n.isRoot() {
		return e.nodes[n.parent].vault.Address()
	}
	if n.root.ParentVault != "" {
		return n.root.ParentVault
	}
	return n.root.EscapeHatchDestination
}

func (e *Engine) emit(ev entities.Event) {
	e.events = append(e.events, ev)
}

// Events returns and clears the events emitted since the last call.
func (e *Engine) Events() []entities.Event {
	events := e.events
	e.events = nil
	return events
}

// Roots lists the ids of every root controller.
func (e *Engine) Roots() []int {
	var roots []int
	for _, n := range e.nodes {
		if n.isRoot() {
			roots = append(roots, n.id)
		}
	}
	return roots
}

func (e *Engine) Len() int {
	return len(e.nodes)
}

func (e *Engine) Balance(id int) (uint64, error) {
	n, err := e.get(id)
	if err != nil {
		return 0, err
	}
	return n.vault.Balance(), nil
}

func (e *Engine) VaultAddress(id int) (string, error) {
	n, err := e.get(id)
	if err != nil {
		return "", err
	}
	return n.vault.Address(), nil
}

// Child resolves the arena id of a child by its index under parentID.
func (e *Engine) Child(parentID, index int) (int, error) {
	parent, err := e.get(parentID)
	if err != nil {
		return 0, err
	}
	child, err := e.child(parent, index)
	if err != nil {
		return 0, err
	}
	return child.id, nil
}

func (e *Engine) child(parent *node, index int) (*node, error) {
	if index < 0 || index >= len(parent.children) {
		return nil, fmt.Errorf("%w: child %d of vault %d", ErrNotFound, index, parent.id)
	}
	return e.nodes[parent.children[index]], nil
}

func checkOwner(n *node, caller string) error {
	if caller != n.owner {
		return fmt.Errorf("%w: vault %d", ErrNotOwner, n.id)
	}
	return nil
}

func checkLive(n *node) error {
	if n.canceled {
		return fmt.Errorf("%w: vault %d", ErrCanceled, n.id)
	}
	return nil
}
