package engine

import (
	"fmt"

	"custody/pkg/entities"
)

// State exports the controller id with its whole subtree.
func (e *Engine) State(id int) (entities.ControllerState, error) {
	n, err := e.get(id)
	if err != nil {
		return entities.ControllerState{}, err
	}
	return e.state(n), nil
}

func (e *Engine) state(n *node) entities.ControllerState {
	st := entities.ControllerState{
		ID:                     n.id,
		Generation:             n.generation,
		Name:                   n.name,
		Owner:                  n.owner,
		VaultAddress:           n.vault.Address(),
		Balance:                n.vault.Balance(),
		ParentSink:             e.sink(n),
		EscapeHatchCaller:      n.root.EscapeHatchCaller,
		EscapeHatchDestination: n.root.EscapeHatchDestination,
		ParentVault:            n.root.ParentVault,
		BaseToken:              n.root.BaseToken,
		Limits:                 n.limits,
		Counter:                n.counter.view(),
		Initialized:            n.initialized,
		Canceled:               n.canceled,
		Children:               make([]entities.ControllerState, 0, len(n.children)),
		Spenders:               n.registry.views(),
		Payments:               len(n.payments),
	}

	if !n.isRoot() {
		parent := n.parent
		st.ParentID = &parent
	}

	for _, childID := range n.children {
		st.Children = append(st.Children, e.state(e.nodes[childID]))
	}

	return st
}

// NodeDump is the persisted form of one controller.
type NodeDump struct {
	ID           int                     `json:"id"`
	Parent       int                     `json:"parent"`
	Generation   int                     `json:"generation"`
	Name         string                  `json:"name"`
	Owner        string                  `json:"owner"`
	VaultAddress string                  `json:"vault_address"`
	Limits       entities.Limits         `json:"limits"`
	Counter      entities.Counter        `json:"counter"`
	Initialized  bool                    `json:"initialized"`
	Canceled     bool                    `json:"canceled"`
	Children     []int                   `json:"children"`
	CancelCursor int                     `json:"cancel_cursor"`
	Spenders     []entities.SpenderState `json:"spenders"`
	Payments     []entities.Payment      `json:"payments"`
	Root         RootOptions             `json:"root"`
}

// Dump is everything needed to rebuild an Engine.
type Dump struct {
	Nodes  []NodeDump      `json:"nodes"`
	Ledger *LedgerSnapshot `json:"ledger,omitempty"`
}

type snapshotter interface {
	Snapshot() LedgerSnapshot
	Restore(LedgerSnapshot)
}

func (e *Engine) Dump() Dump {
	d := Dump{Nodes: make([]NodeDump, 0, len(e.nodes))}
	for _, n := range e.nodes {
		children := make([]int, len(n.children))
		copy(children, n.children)
		payments := make([]entities.Payment, len(n.payments))
		copy(payments, n.payments)

		d.Nodes = append(d.Nodes, NodeDump{
			ID:           n.id,
			Parent:       n.parent,
			Generation:   n.generation,
			Name:         n.name,
			Owner:        n.owner,
			VaultAddress: n.vault.Address(),
			Limits:       n.limits,
			Counter:      n.counter.view(),
			Initialized:  n.initialized,
			Canceled:     n.canceled,
			Children:     children,
			CancelCursor: n.cancelCursor,
			Spenders:     n.registry.views(),
			Payments:     payments,
			Root:         n.root,
		})
	}

	if s, ok := e.ledger.(snapshotter); ok {
		snap := s.Snapshot()
		d.Ledger = &snap
	}

	return d
}

// Load replaces the arena with the content of d.
func (e *Engine) Load(d Dump) error {
	nodes := make([]*node, 0, len(d.Nodes))
	for i, nd := range d.Nodes {
		if nd.ID != i {
			return fmt.Errorf("dump out of order: node %d at position %d", nd.ID, i)
		}
		if nd.Parent != NoParent && (nd.Parent < 0 || nd.Parent >= len(d.Nodes)) {
			return fmt.Errorf("node %d: %w: parent %d", nd.ID, ErrUnknownVault, nd.Parent)
		}

		payments := make([]entities.Payment, len(nd.Payments))
		copy(payments, nd.Payments)

		nodes = append(nodes, &node{
			id:           nd.ID,
			parent:       nd.Parent,
			generation:   nd.Generation,
			name:         nd.Name,
			owner:        nd.Owner,
			vault:        e.ledger.Attach(nd.VaultAddress),
			limits:       nd.Limits,
			counter:      bucketFromView(nd.Counter),
			initialized:  nd.Initialized,
			canceled:     nd.Canceled,
			children:     append([]int(nil), nd.Children...),
			cancelCursor: nd.CancelCursor,
			registry:     registryFromViews(nd.Spenders),
			payments:     payments,
			root:         nd.Root,
		})
	}

	if s, ok := e.ledger.(snapshotter); ok && d.Ledger != nil {
		s.Restore(*d.Ledger)
	}

	e.nodes = nodes
	e.events = nil

	return nil
}
