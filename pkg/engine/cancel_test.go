package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/pkg/consts"
)

// buildTree hangs width children under parentID, depth levels deep, and
// returns every created id.
func buildTree(t *testing.T, e *Engine, parentID, width, depth int, highest uint64) []int {
	t.Helper()

	if depth == 0 {
		return nil
	}

	var ids []int
	for i := 0; i < width; i++ {
		childID := addChild(t, e, parentID, owner, childLimits(highest, highest/2))
		ids = append(ids, childID)
		ids = append(ids, buildTree(t, e, childID, width, depth-1, highest/10)...)
	}
	return ids
}

func TestEngine_CancelVaultSweepsWholeTree(t *testing.T) {
	e, ledger, rootID := newInitializedEngine(t, rootLimits())
	require.NoError(t, e.Deposit(rootID, t0, 5000))

	ids := buildTree(t, e, rootID, 3, 3, 1000)
	require.Len(t, ids, 39)

	leaf := ids[len(ids)-1]
	require.NoError(t, e.Deposit(leaf, t0, 7))
	e.Events()

	calls := 0
	canceled := map[int]bool{}
	for {
		calls++
		require.LessOrEqual(t, calls, 40, "sweep must make progress on every call")

		result, err := e.CancelVault(rootID, owner, t0+hour, consts.MaxGenerations)
		require.NoError(t, err)
		require.NotEmpty(t, result.Canceled)

		for _, id := range result.Canceled {
			assert.False(t, canceled[id], "vault %d canceled twice", id)
			canceled[id] = true
		}
		if result.Done {
			break
		}
	}

	assert.Len(t, canceled, 40)
	assert.Equal(t, uint64(5007), ledger.Balance(hatchDest))

	for id := 0; id < e.Len(); id++ {
		balance, _ := e.Balance(id)
		assert.Zero(t, balance)
		st, _ := e.State(id)
		assert.True(t, st.Canceled)
	}

	// every node is canceled after all of its children
	seen := map[int]bool{}
	for _, ev := range e.Events() {
		require.Equal(t, consts.VaultCanceled, ev.Kind)
		n, _ := e.get(ev.VaultID)
		for _, childID := range n.children {
			assert.True(t, seen[childID], "vault %d canceled before child %d", ev.VaultID, childID)
		}
		seen[ev.VaultID] = true
	}
}

func TestEngine_CancelVaultSingleCallWithLargeBudget(t *testing.T) {
	e, ledger, rootID := newInitializedEngine(t, rootLimits())
	require.NoError(t, e.Deposit(rootID, t0, 5000))
	buildTree(t, e, rootID, 3, 3, 1000)

	result, err := e.CancelVault(rootID, owner, t0, 1000)
	require.NoError(t, err)
	assert.True(t, result.Done)
	assert.Len(t, result.Canceled, 40)
	assert.Equal(t, rootID, result.Canceled[39])
	assert.Equal(t, uint64(5000), ledger.Balance(hatchDest))

	again, err := e.CancelVault(rootID, owner, t0, 1000)
	require.NoError(t, err)
	assert.True(t, again.Done)
	assert.Empty(t, again.Canceled)
}

func TestEngine_CancelVaultPartialProgress(t *testing.T) {
	e, _, rootID := newInitializedEngine(t, rootLimits())
	require.NoError(t, e.Deposit(rootID, t0, 5000))
	ids := buildTree(t, e, rootID, 3, 3, 1000)

	result, err := e.CancelVault(rootID, owner, t0, 1)
	require.NoError(t, err)
	assert.False(t, result.Done)
	require.NotEmpty(t, result.Canceled)

	// the first leaf goes first
	assert.Equal(t, ids[2], result.Canceled[0])

	st, _ := e.State(rootID)
	assert.False(t, st.Canceled)
	assert.True(t, st.Children[0].Children[0].Children[0].Canceled)
}

func TestEngine_CancelVaultSubtree(t *testing.T) {
	e, _, rootID := newInitializedEngine(t, rootLimits())
	require.NoError(t, e.Deposit(rootID, t0, 100))
	childID := addChild(t, e, rootID, "admin", childLimits(20, 5))

	result, err := e.CancelVault(childID, "admin", t0, 10)
	require.NoError(t, err)
	assert.True(t, result.Done)

	rootBalance, _ := e.Balance(rootID)
	assert.Equal(t, uint64(100), rootBalance)

	st, _ := e.State(rootID)
	assert.False(t, st.Canceled)

	_, err = e.TopUp(childID, t0)
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestEngine_CancelVaultAuthority(t *testing.T) {
	e, _, rootID := newInitializedEngine(t, rootLimits())
	childID := addChild(t, e, rootID, "admin", childLimits(20, 5))
	grandchildID := addChild(t, e, childID, "operator", childLimits(10, 5))

	_, err := e.CancelVault(rootID, "mallory", t0, 10)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = e.CancelVault(rootID, "admin", t0, 10)
	assert.ErrorIs(t, err, ErrNotOwner, "descendant owners cannot cancel ancestors")

	_, err = e.CancelVault(grandchildID, owner, t0, 10)
	assert.NoError(t, err, "ancestor owners can cancel descendants")

	_, err = e.CancelVault(rootID, hatchCaller, t0, 10)
	assert.NoError(t, err)
}

func TestEngine_CancelVaultUninitialized(t *testing.T) {
	e, _, rootID := newEngine(t)
	result, err := e.CancelVault(rootID, owner, t0, 10)
	require.NoError(t, err)
	assert.True(t, result.Done)
}

func TestEngine_CancelVaultParentVaultSink(t *testing.T) {
	ledger := NewMemoryLedger()
	e := New(ledger)
	rootID, err := e.NewRootController("root", owner, RootOptions{
		EscapeHatchDestination: hatchDest, ParentVault: "upstream",
	})
	require.NoError(t, err)
	require.NoError(t, e.Deposit(rootID, t0, 30))

	_, err = e.CancelVault(rootID, owner, t0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), ledger.Balance("upstream"))
	assert.Zero(t, ledger.Balance(hatchDest))
}

func TestEngine_CanceledRejectsMutations(t *testing.T) {
	e, _, id := paymentFixture(t, rootLimits(), spenderLimits(), 100)
	_, err := e.CancelVault(id, owner, t0, 10)
	require.NoError(t, err)

	assert.ErrorIs(t, e.SetVaultLimits(id, owner, t0, rootLimits()), ErrCanceled)
	_, err = e.AuthorizeSpender(id, owner, t0, "carol", "carol-addr", spenderLimits())
	assert.ErrorIs(t, err, ErrCanceled)
	_, err = e.AuthorizeRecipient(id, owner, t0, "alice-addr", "dave-addr", "dave")
	assert.ErrorIs(t, err, ErrCanceled)
	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(1))
	assert.ErrorIs(t, err, ErrCanceled)
	_, err = e.CreateChildVault(id, owner, t0, "child")
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, e.Initialize(id, owner, t0, rootLimits()), ErrCanceled)

	st, err := e.State(id)
	require.NoError(t, err)
	assert.True(t, st.Canceled)
}
