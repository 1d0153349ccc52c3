package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// canCancel allows the owner of the node or of any ancestor, and the escape
// hatch caller of the tree.
func (e *Engine) canCancel(n *node, caller string) bool {
	for cur := n; ; cur = e.nodes[cur.parent] {
		if cur.owner == caller {
			return true
		}
		if cur.isRoot() {
			return cur.root.EscapeHatchCaller != "" && cur.root.EscapeHatchCaller == caller
		}
	}
}

// nextLiveChild returns the first child that is not canceled yet. Children are
// canceled in index order so the cursor never has to move back.
func (e *Engine) nextLiveChild(n *node) *node {
	for n.cancelCursor < len(n.children) {
		child := e.nodes[n.children[n.cancelCursor]]
		if !child.canceled {
			return child
		}
		n.cancelCursor++
	}
	return nil
}

func (e *Engine) drain(n *node, now int64) error {
	destination := e.sink(n)

	amount := n.vault.Balance()
	if amount > 0 {
		if err := n.vault.Withdraw(destination, amount); err != nil {
			return err
		}
	}

	n.canceled = true
	e.emit(entities.Event{Kind: consts.VaultCanceled, VaultID: n.id, Timestamp: now, Address: destination, Amount: amount})

	return nil
}

// CancelVault cancels the subtree under id depth first, leaves before their
// parents, spending one unit of budget per node visited. Work done is kept
// when the budget runs out; calling again resumes where it stopped. The
// budget is raised to the maximum tree depth so every call cancels at least
// one node.
func (e *Engine) CancelVault(id int, caller string, now int64, budget int) (entities.CancelResult, error) {
	target, err := e.get(id)
	if err != nil {
		return entities.CancelResult{}, err
	}

	if !e.canCancel(target, caller) {
		return entities.CancelResult{}, fmt.Errorf("%w: %s cannot cancel vault %d", ErrNotOwner, caller, id)
	}

	result := entities.CancelResult{Canceled: []int{}}
	if target.canceled {
		result.Done = true
		result.Remaining = budget
		return result, nil
	}

	if budget < consts.MaxGenerations {
		budget = consts.MaxGenerations
	}

	path := []*node{target}
	for len(path) > 0 && budget > 0 {
		budget--
		cur := path[len(path)-1]

		if child := e.nextLiveChild(cur); child != nil {
			path = append(path, child)
			continue
		}

		if err := e.drain(cur, now); err != nil {
			return result, err
		}
		result.Canceled = append(result.Canceled, cur.id)
		path = path[:len(path)-1]
	}

	result.Done = target.canceled
	result.Remaining = budget

	return result, nil
}
