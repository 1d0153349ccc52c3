package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"custody/pkg/entities"
)

const (
	owner       = "owner"
	hatchCaller = "hatch"
	hatchDest   = "escape"
	day         = int64(86400)
	hour        = int64(3600)
	// midnight of a fixed day
	t0 = int64(19675 * 86400)
)

func rootLimits() entities.Limits {
	return entities.Limits{
		DailyAmountLimit:         1000,
		DailyTxnLimit:            10,
		TxnAmountLimit:           500,
		OpeningTime:              0,
		ClosingTime:              86400,
		WhiteListTimelock:        0,
		HighestAcceptableBalance: 10000,
		LowestAcceptableBalance:  0,
	}
}

func newEngine(t *testing.T) (*Engine, *MemoryLedger, int) {
	t.Helper()

	ledger := NewMemoryLedger()
	e := New(ledger)
	id, err := e.NewRootController("root", owner, RootOptions{
		EscapeHatchCaller:      hatchCaller,
		EscapeHatchDestination: hatchDest,
	})
	require.NoError(t, err)

	return e, ledger, id
}

func newInitializedEngine(t *testing.T, limits entities.Limits) (*Engine, *MemoryLedger, int) {
	t.Helper()

	e, ledger, id := newEngine(t)
	require.NoError(t, e.Initialize(id, owner, t0, limits))
	e.Events()

	return e, ledger, id
}

func addChild(t *testing.T, e *Engine, parentID int, admin string, limits entities.Limits) int {
	t.Helper()

	parent, err := e.get(parentID)
	require.NoError(t, err)

	child, err := e.CreateChildVault(parentID, parent.owner, t0, "child")
	require.NoError(t, err)
	require.NoError(t, e.InitializeChildVault(parentID, parent.owner, t0, child.Index, admin, limits))

	return child.ID
}

func kinds(events []entities.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind.String())
	}
	return out
}
