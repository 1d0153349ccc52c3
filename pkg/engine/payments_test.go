package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

func paymentFixture(
	t *testing.T, vault entities.Limits, spender entities.SpenderLimits, funds uint64,
) (*Engine, *MemoryLedger, int) {
	t.Helper()

	e, ledger, id := newInitializedEngine(t, vault)
	require.NoError(t, e.Deposit(id, t0, funds))
	_, err := e.AuthorizeSpender(id, owner, t0, "alice", "alice-addr", spender)
	require.NoError(t, err)
	_, err = e.AuthorizeRecipient(id, owner, t0, "alice-addr", "bob-addr", "bob")
	require.NoError(t, err)
	e.Events()

	return e, ledger, id
}

func pay(amount uint64) PaymentOrder {
	return PaymentOrder{Name: "invoice", Reference: "ref-1", Recipient: "bob-addr", Amount: amount}
}

func TestEngine_SendToAuthorizedRecipient(t *testing.T) {
	e, ledger, id := paymentFixture(t, rootLimits(), spenderLimits(), 1000)

	paymentID, err := e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(40))
	require.NoError(t, err)
	assert.Equal(t, 0, paymentID)

	assert.Equal(t, uint64(40), ledger.Balance("bob-addr"))
	balance, _ := e.Balance(id)
	assert.Equal(t, uint64(960), balance)

	events := e.Events()
	require.Len(t, events, 1)
	assert.Equal(t, consts.PaymentSent, events[0].Kind)
	assert.Equal(t, uint64(40), events[0].Amount)
	assert.Equal(t, "ref-1", events[0].Reference)

	payments, err := e.Payments(id)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, entities.Payment{
		ID: 0, VaultID: id, Name: "invoice", Reference: "ref-1", Spender: "alice-addr",
		Recipient: "bob-addr", Amount: 40, Timestamp: t0 + hour, Paid: true,
	}, payments[0])

	st, _ := e.State(id)
	assert.Equal(t, uint64(40), st.Counter.AccAmountInDay)
	assert.Equal(t, uint64(40), st.Spenders[0].Counter.AccAmountInDay)
}

func TestEngine_SendToAuthorizedRecipientDailyScenario(t *testing.T) {
	vault := entities.Limits{
		DailyAmountLimit: 10, DailyTxnLimit: 2, TxnAmountLimit: 8,
		ClosingTime: 86400, HighestAcceptableBalance: 1000,
	}
	spender := entities.SpenderLimits{DailyAmountLimit: 10, DailyTxnLimit: 2, TxnAmountLimit: 8, ClosingTime: 86400}
	e, _, id := paymentFixture(t, vault, spender, 1000)

	_, err := e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(8))
	require.NoError(t, err)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+2*hour, pay(3))
	assert.ErrorIs(t, err, ErrLimitExceeded)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+day+hour, pay(3))
	assert.NoError(t, err)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+day+2*hour, pay(9))
	assert.ErrorIs(t, err, ErrLimitExceeded, "above per transaction limit")
}

func TestEngine_SendToAuthorizedRecipientVaultRejectionKeepsSpenderQuota(t *testing.T) {
	vault := rootLimits()
	vault.DailyAmountLimit = 10
	vault.TxnAmountLimit = 10
	spender := entities.SpenderLimits{DailyAmountLimit: 10, DailyTxnLimit: 5, TxnAmountLimit: 10, ClosingTime: 86400}
	e, _, id := paymentFixture(t, vault, spender, 1000)

	_, err := e.AuthorizeSpender(id, owner, t0, "carol", "carol-addr", spender)
	require.NoError(t, err)
	_, err = e.AuthorizeRecipient(id, owner, t0, "carol-addr", "bob-addr", "bob")
	require.NoError(t, err)

	_, err = e.SendToAuthorizedRecipient(id, "carol-addr", t0+hour, pay(8))
	require.NoError(t, err)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(5))
	assert.ErrorIs(t, err, ErrLimitExceeded)

	st, _ := e.State(id)
	assert.Equal(t, uint64(0), st.Spenders[0].Counter.AccAmountInDay)
	assert.Equal(t, uint64(8), st.Counter.AccAmountInDay)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(2))
	assert.NoError(t, err)
}

func TestEngine_SendToAuthorizedRecipientInsufficientFunds(t *testing.T) {
	e, _, id := paymentFixture(t, rootLimits(), spenderLimits(), 5)

	_, err := e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(8))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	st, _ := e.State(id)
	assert.Equal(t, entities.Counter{}, st.Counter)
	assert.Equal(t, entities.Counter{}, st.Spenders[0].Counter)
	assert.Equal(t, 0, st.Payments)
	assert.Empty(t, e.Events())
}

func TestEngine_SendToAuthorizedRecipientWindows(t *testing.T) {
	night := spenderLimits()
	night.OpeningTime = 22 * hour
	night.ClosingTime = 2 * hour

	office := rootLimits()
	office.OpeningTime = 9 * hour
	office.ClosingTime = 17 * hour

	tests := []struct {
		name    string
		vault   entities.Limits
		spender entities.SpenderLimits
		at      int64
		wantErr error
	}{
		{name: "spender night window at 23:00", vault: rootLimits(), spender: night, at: t0 + 23*hour},
		{name: "spender night window at 03:00", vault: rootLimits(), spender: night, at: t0 + 3*hour, wantErr: ErrOutsideWindow},
		{name: "spender night window at 21:00", vault: rootLimits(), spender: night, at: t0 + 21*hour, wantErr: ErrOutsideWindow},
		{name: "vault office hours at 10:00", vault: office, spender: spenderLimits(), at: t0 + 10*hour},
		{name: "vault office hours at 18:00", vault: office, spender: spenderLimits(), at: t0 + 18*hour, wantErr: ErrOutsideWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, id := paymentFixture(t, tt.vault, tt.spender, 1000)
			_, err := e.SendToAuthorizedRecipient(id, "alice-addr", tt.at, pay(10))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEngine_SendToAuthorizedRecipientTimelock(t *testing.T) {
	vault := rootLimits()
	vault.WhiteListTimelock = 86400
	e, _, id := newInitializedEngine(t, vault)
	require.NoError(t, e.Deposit(id, t0, 1000))
	_, err := e.AuthorizeSpender(id, owner, t0, "alice", "alice-addr", spenderLimits())
	require.NoError(t, err)

	authorizedAt := t0 + 10
	_, err = e.AuthorizeRecipient(id, owner, authorizedAt, "alice-addr", "bob-addr", "bob")
	require.NoError(t, err)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", authorizedAt+86399, pay(10))
	assert.ErrorIs(t, err, ErrRecipientNotReady)

	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", authorizedAt+86400, pay(10))
	assert.NoError(t, err)
}

func TestEngine_SendToAuthorizedRecipientUnauthorized(t *testing.T) {
	e, _, id := paymentFixture(t, rootLimits(), spenderLimits(), 1000)

	_, err := e.SendToAuthorizedRecipient(id, "mallory", t0+hour, pay(10))
	assert.ErrorIs(t, err, ErrUnauthorized)

	order := pay(10)
	order.Recipient = "eve-addr"
	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, order)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, e.RemoveAuthorizedRecipient(id, owner, t0, "alice-addr", "bob-addr"))
	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(10))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = e.AuthorizeRecipient(id, owner, t0, "alice-addr", "bob-addr", "bob")
	require.NoError(t, err)
	require.NoError(t, e.RemoveAuthorizedSpender(id, owner, t0, "alice-addr"))
	_, err = e.SendToAuthorizedRecipient(id, "alice-addr", t0+hour, pay(10))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEngine_SendToAuthorizedRecipientTopsUpChild(t *testing.T) {
	e, _, rootID := newInitializedEngine(t, rootLimits())
	require.NoError(t, e.Deposit(rootID, t0, 100))

	childLimits := rootLimits()
	childLimits.HighestAcceptableBalance = 10
	childLimits.LowestAcceptableBalance = 5
	childID := addChild(t, e, rootID, "admin", childLimits)

	_, err := e.AuthorizeSpender(childID, "admin", t0, "alice", "alice-addr", spenderLimits())
	require.NoError(t, err)
	_, err = e.AuthorizeRecipient(childID, "admin", t0, "alice-addr", "bob-addr", "bob")
	require.NoError(t, err)
	e.Events()

	_, err = e.SendToAuthorizedRecipient(childID, "alice-addr", t0+hour, pay(8))
	require.NoError(t, err)
	assert.Equal(t, []string{"PaymentSent", "TopUpVault"}, kinds(e.Events()))

	balance, _ := e.Balance(childID)
	assert.Equal(t, uint64(10), balance)
	rootBalance, _ := e.Balance(rootID)
	assert.Equal(t, uint64(82), rootBalance)
}
