package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"custody/config"
	"custody/pkg/cache"
	"custody/pkg/consts"
	"custody/pkg/engine"
	"custody/pkg/entities"
	"custody/pkg/repo"
	"custody/pkg/repo/driver/medium"
	"custody/utilities"
)

const persistTimeout = 10 * time.Second

// Clock returns the current unix time in seconds.
type Clock func() int64

type VaultOptions struct {
	Clock        Clock
	CancelBudget int
	Decimals     int32
	Symbol       string
	// AddressValidator checks externally supplied account addresses. Nil
	// accepts anything.
	AddressValidator func(string) error
}

// VaultUseCases serializes every engine operation, persists the resulting
// state and fans the emitted events out.
type VaultUseCases struct {
	mu         sync.Mutex
	engine     *engine.Engine
	repo       repo.VaultRepoImply
	cache      *cache.StateCache
	publishers []medium.EventPublisher
	opts       VaultOptions
	version    int64
	dirty      bool
	restored   bool
}

type VaultUseCaseImply interface {
	Restore(ctx context.Context) error
	Bootstrap(ctx context.Context, root config.RootVault) error
	Checkpoint(ctx context.Context) error
	RunCheckpointer(ctx context.Context, interval time.Duration)

	Health(ctx context.Context) entities.VaultHealth
	RootVaults(ctx context.Context) ([]entities.ControllerState, error)
	CreateRoot(ctx context.Context, req entities.CreateRootRequest) (int, error)
	State(ctx context.Context, id int) (entities.ControllerState, error)
	Events(ctx context.Context, id, pageSize int, pageState []byte) ([]entities.Event, []byte, error)
	Payments(ctx context.Context, id, pageSize int, pageState []byte) ([]entities.Payment, []byte, error)

	Initialize(ctx context.Context, id int, caller string, limits entities.Limits) error
	SetVaultLimits(ctx context.Context, id int, caller string, limits entities.Limits) error
	CreateChildVault(ctx context.Context, id int, caller, name string) (entities.ChildVault, error)
	InitializeChildVault(ctx context.Context, parentID int, caller string, index int, req entities.InitializeChildRequest) error
	SetChildVaultLimits(ctx context.Context, parentID int, caller string, index int, limits entities.Limits) error

	AuthorizeSpender(ctx context.Context, id int, caller string, req entities.AuthorizeSpenderRequest) (int, error)
	RemoveAuthorizedSpender(ctx context.Context, id int, caller, address string) error
	AuthorizeRecipient(ctx context.Context, id int, caller, spender string, req entities.AuthorizeRecipientRequest) (int, error)
	RemoveAuthorizedRecipient(ctx context.Context, id int, caller, spender, recipient string) error
	SendToAuthorizedRecipient(ctx context.Context, id int, spender string, req entities.PaymentRequest) (entities.Payment, error)

	Deposit(ctx context.Context, id int, amount uint64) error
	TopUp(ctx context.Context, id int) (uint64, error)
	SendBackOverflow(ctx context.Context, id int, caller string) (uint64, error)
	CancelVault(ctx context.Context, id int, caller string, budget int) (entities.CancelResult, error)
	EscapeHatch(ctx context.Context, id int, caller string) (uint64, error)
}

func NewVaultUseCases(
	eng *engine.Engine, vaultRepo repo.VaultRepoImply, stateCache *cache.StateCache,
	publishers []medium.EventPublisher, opts VaultOptions,
) *VaultUseCases {
	if opts.Clock == nil {
		opts.Clock = utilities.UnixTime
	}
	if opts.CancelBudget <= 0 {
		opts.CancelBudget = consts.DefaultCancelBudget
	}

	return &VaultUseCases{
		engine:     eng,
		repo:       vaultRepo,
		cache:      stateCache,
		publishers: publishers,
		opts:       opts,
	}
}

func (v *VaultUseCases) validateAddresses(addresses ...string) error {
	if v.opts.AddressValidator == nil {
		return nil
	}
	for _, address := range addresses {
		if address == "" {
			continue
		}
		if err := v.opts.AddressValidator(address); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
	}
	return nil
}

// Restore loads the last saved engine dump. A missing dump leaves the engine
// empty.
func (v *VaultUseCases) Restore(ctx context.Context) error {
	log := utilities.NewLogger("Restore")

	v.mu.Lock()
	defer v.mu.Unlock()

	raw, version, err := v.repo.LoadState(ctx, consts.EngineStateKey)
	if errors.Is(err, repo.ErrStateNotFound) {
		log.Info("no stored vault state, starting empty")
		v.restored = true
		return nil
	}
	if err != nil {
		return err
	}

	var dump engine.Dump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return fmt.Errorf("failed to decode vault state: %w", err)
	}

	if err := v.engine.Load(dump); err != nil {
		return fmt.Errorf("failed to load vault state: %w", err)
	}

	v.version = version
	v.restored = true
	v.cache.Flush()

	log.Infof("restored %d vault controllers at version %d", v.engine.Len(), version)

	return nil
}

// Bootstrap creates the configured root controller when the engine is empty.
func (v *VaultUseCases) Bootstrap(ctx context.Context, root config.RootVault) error {
	v.mu.Lock()
	empty := v.engine.Len() == 0
	v.mu.Unlock()

	if !empty || root.Owner == "" {
		return nil
	}

	id, err := v.CreateRoot(ctx, entities.CreateRootRequest{
		Name:                   root.Name,
		Owner:                  root.Owner,
		EscapeHatchCaller:      root.EscapeHatchCaller,
		EscapeHatchDestination: root.EscapeHatchDestination,
		ParentVault:            root.ParentVault,
		BaseToken:              root.BaseToken,
	})
	if err != nil {
		return fmt.Errorf("failed to bootstrap root vault: %w", err)
	}

	utilities.NewLogger("Bootstrap").Infof("created root vault %d for %s", id, root.Owner)

	return nil
}

// mutate runs fn on the engine under the lock. Whenever the engine may have
// changed, the state is saved and the snapshot cache dropped before the lock
// is released; the drained events are published after.
func (v *VaultUseCases) mutate(ctx context.Context, op string, fn func(now int64) error) error {
	events, opErr := v.apply(ctx, op, fn)
	v.publish(ctx, events)
	return opErr
}

func (v *VaultUseCases) apply(ctx context.Context, op string, fn func(now int64) error) ([]entities.Event, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	opErr := fn(v.opts.Clock())
	events := v.engine.Events()
	if opErr != nil && len(events) == 0 {
		return nil, opErr
	}

	log := utilities.NewLoggerWithFields("mutate", map[string]interface{}{
		"op":     op,
		"events": len(events),
	})

	for i := range events {
		events[i].ID = uuid.NewString()
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	v.version++
	if err := v.save(pctx); err != nil {
		log.WithError(err).Error("vault state not saved, will retry at next checkpoint")
		v.dirty = true
	}

	if err := v.repo.SaveEvents(pctx, events); err != nil {
		log.WithError(err).Error("failed to save events")
	}

	v.cache.Flush()

	return events, opErr
}

// publish fans events out without holding the engine lock.
func (v *VaultUseCases) publish(ctx context.Context, events []entities.Event) {
	if len(events) == 0 {
		return
	}

	log := utilities.NewLogger("publish")

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	for _, event := range events {
		for _, publisher := range v.publishers {
			if err := publisher.PublishEvent(pctx, event); err != nil {
				log.WithError(err).WithField("kind", event.Kind.String()).Warn("failed to publish event")
			}
		}
	}
}

// save must be called with mu held.
func (v *VaultUseCases) save(ctx context.Context) error {
	raw, err := json.Marshal(v.engine.Dump())
	if err != nil {
		return err
	}
	if err := v.repo.SaveState(ctx, consts.EngineStateKey, raw, v.version); err != nil {
		return err
	}
	v.dirty = false
	return nil
}

// Checkpoint retries a state save that failed after a committed operation.
func (v *VaultUseCases) Checkpoint(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.dirty {
		return nil
	}

	return v.save(ctx)
}

func (v *VaultUseCases) RunCheckpointer(ctx context.Context, interval time.Duration) {
	log := utilities.NewLogger("RunCheckpointer")

	ticker := time.NewTicker(interval)

	log.Info("Starting ticker")
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Terminating...")
				ticker.Stop()
				if err := v.Checkpoint(context.Background()); err != nil {
					log.WithError(err).Error("final checkpoint failed")
				}
				return
			case t := <-ticker.C:
				log.Debugf("Tick at %s", t)
				if err := v.Checkpoint(ctx); err != nil {
					log.WithError(err).Error("checkpoint failed")
				}
			}
		}
	}()
}

// Health reports whether the engine state was restored and whether a save is
// still pending.
func (v *VaultUseCases) Health(_ context.Context) entities.VaultHealth {
	v.mu.Lock()
	defer v.mu.Unlock()

	return entities.VaultHealth{
		Restored: v.restored,
		Vaults:   v.engine.Len(),
		Roots:    len(v.engine.Roots()),
		Version:  v.version,
		Dirty:    v.dirty,
	}
}

// RootVaults returns the snapshot of every root controller.
func (v *VaultUseCases) RootVaults(ctx context.Context) ([]entities.ControllerState, error) {
	v.mu.Lock()
	roots := v.engine.Roots()
	v.mu.Unlock()

	states := make([]entities.ControllerState, 0, len(roots))
	for _, id := range roots {
		st, err := v.State(ctx, id)
		if err != nil {
			return nil, err
		}
		states = append(states, st)
	}

	return states, nil
}

func (v *VaultUseCases) CreateRoot(ctx context.Context, req entities.CreateRootRequest) (int, error) {
	if err := v.validateAddresses(req.Owner, req.EscapeHatchCaller, req.EscapeHatchDestination); err != nil {
		return 0, err
	}

	var id int
	err := v.mutate(ctx, "CreateRoot", func(_ int64) error {
		var err error
		id, err = v.engine.NewRootController(req.Name, req.Owner, engine.RootOptions{
			EscapeHatchCaller:      req.EscapeHatchCaller,
			EscapeHatchDestination: req.EscapeHatchDestination,
			ParentVault:            req.ParentVault,
			BaseToken:              req.BaseToken,
		})
		return err
	})

	return id, err
}

func (v *VaultUseCases) State(_ context.Context, id int) (entities.ControllerState, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if st, ok := v.cache.Get(id); ok {
		return st, nil
	}

	st, err := v.engine.State(id)
	if err != nil {
		return entities.ControllerState{}, err
	}

	v.decorate(&st)
	v.cache.Set(id, st)

	return st, nil
}

func (v *VaultUseCases) decorate(st *entities.ControllerState) {
	st.BalanceDisplay = utilities.FormatUnits(st.Balance, v.opts.Decimals)
	st.Currency = v.opts.Symbol
	for i := range st.Children {
		v.decorate(&st.Children[i])
	}
}

func (v *VaultUseCases) exists(id int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, err := v.engine.VaultAddress(id)
	return err
}

func (v *VaultUseCases) Events(
	ctx context.Context, id, pageSize int, pageState []byte,
) ([]entities.Event, []byte, error) {
	if err := v.exists(id); err != nil {
		return nil, nil, err
	}
	return v.repo.GetEvents(ctx, id, pageSize, pageState)
}

func (v *VaultUseCases) Payments(
	ctx context.Context, id, pageSize int, pageState []byte,
) ([]entities.Payment, []byte, error) {
	if err := v.exists(id); err != nil {
		return nil, nil, err
	}
	return v.repo.GetPayments(ctx, id, pageSize, pageState)
}

func (v *VaultUseCases) Initialize(ctx context.Context, id int, caller string, limits entities.Limits) error {
	return v.mutate(ctx, "Initialize", func(now int64) error {
		return v.engine.Initialize(id, caller, now, limits)
	})
}

func (v *VaultUseCases) SetVaultLimits(ctx context.Context, id int, caller string, limits entities.Limits) error {
	return v.mutate(ctx, "SetVaultLimits", func(now int64) error {
		return v.engine.SetVaultLimits(id, caller, now, limits)
	})
}

func (v *VaultUseCases) CreateChildVault(ctx context.Context, id int, caller, name string) (entities.ChildVault, error) {
	var child entities.ChildVault
	err := v.mutate(ctx, "CreateChildVault", func(now int64) error {
		var err error
		child, err = v.engine.CreateChildVault(id, caller, now, name)
		return err
	})
	return child, err
}

func (v *VaultUseCases) InitializeChildVault(
	ctx context.Context, parentID int, caller string, index int, req entities.InitializeChildRequest,
) error {
	if err := v.validateAddresses(req.Admin); err != nil {
		return err
	}

	return v.mutate(ctx, "InitializeChildVault", func(now int64) error {
		return v.engine.InitializeChildVault(parentID, caller, now, index, req.Admin, req.Limits)
	})
}

func (v *VaultUseCases) SetChildVaultLimits(
	ctx context.Context, parentID int, caller string, index int, limits entities.Limits,
) error {
	return v.mutate(ctx, "SetChildVaultLimits", func(now int64) error {
		return v.engine.SetChildVaultLimits(parentID, caller, now, index, limits)
	})
}

func (v *VaultUseCases) AuthorizeSpender(
	ctx context.Context, id int, caller string, req entities.AuthorizeSpenderRequest,
) (int, error) {
	if err := v.validateAddresses(req.Address); err != nil {
		return 0, err
	}

	var spenderID int
	err := v.mutate(ctx, "AuthorizeSpender", func(now int64) error {
		var err error
		spenderID, err = v.engine.AuthorizeSpender(id, caller, now, req.Name, req.Address, req.SpenderLimits)
		return err
	})
	return spenderID, err
}

func (v *VaultUseCases) RemoveAuthorizedSpender(ctx context.Context, id int, caller, address string) error {
	return v.mutate(ctx, "RemoveAuthorizedSpender", func(now int64) error {
		return v.engine.RemoveAuthorizedSpender(id, caller, now, address)
	})
}

func (v *VaultUseCases) AuthorizeRecipient(
	ctx context.Context, id int, caller, spender string, req entities.AuthorizeRecipientRequest,
) (int, error) {
	if err := v.validateAddresses(req.Address); err != nil {
		return 0, err
	}

	var recipientID int
	err := v.mutate(ctx, "AuthorizeRecipient", func(now int64) error {
		var err error
		recipientID, err = v.engine.AuthorizeRecipient(id, caller, now, spender, req.Address, req.Name)
		return err
	})
	return recipientID, err
}

func (v *VaultUseCases) RemoveAuthorizedRecipient(ctx context.Context, id int, caller, spender, recipient string) error {
	return v.mutate(ctx, "RemoveAuthorizedRecipient", func(now int64) error {
		return v.engine.RemoveAuthorizedRecipient(id, caller, now, spender, recipient)
	})
}

// SendToAuthorizedRecipient pays req.Amount out of vault id on behalf of
// spender and records the payment in the history table.
func (v *VaultUseCases) SendToAuthorizedRecipient(
	ctx context.Context, id int, spender string, req entities.PaymentRequest,
) (entities.Payment, error) {
	var (
		payment entities.Payment
		paid    bool
	)

	err := v.mutate(ctx, "SendToAuthorizedRecipient", func(now int64) error {
		before, _ := v.engine.Payments(id)

		_, err := v.engine.SendToAuthorizedRecipient(id, spender, now, engine.PaymentOrder{
			Name:      req.Name,
			Reference: req.Reference,
			Recipient: req.Recipient,
			Amount:    req.Amount,
		})

		// a failed post-payment top-up still leaves the payment committed
		if after, _ := v.engine.Payments(id); len(after) > len(before) {
			payment = after[len(after)-1]
			paid = true
		}
		return err
	})

	if paid {
		if saveErr := v.repo.SavePayment(context.WithoutCancel(ctx), payment); saveErr != nil {
			utilities.NewLogger("SendToAuthorizedRecipient").WithError(saveErr).
				WithFields(logrus.Fields{"vault": id, "payment": payment.ID}).
				Error("payment committed but not recorded in history")
		}
	}

	return payment, err
}

func (v *VaultUseCases) Deposit(ctx context.Context, id int, amount uint64) error {
	return v.mutate(ctx, "Deposit", func(now int64) error {
		return v.engine.Deposit(id, now, amount)
	})
}

func (v *VaultUseCases) TopUp(ctx context.Context, id int) (uint64, error) {
	var amount uint64
	err := v.mutate(ctx, "TopUp", func(now int64) error {
		var err error
		amount, err = v.engine.TopUp(id, now)
		return err
	})
	return amount, err
}

func (v *VaultUseCases) SendBackOverflow(ctx context.Context, id int, caller string) (uint64, error) {
	var amount uint64
	err := v.mutate(ctx, "SendBackOverflow", func(now int64) error {
		var err error
		amount, err = v.engine.SendBackOverflow(id, caller, now)
		return err
	})
	return amount, err
}

func (v *VaultUseCases) CancelVault(
	ctx context.Context, id int, caller string, budget int,
) (entities.CancelResult, error) {
	if budget <= 0 {
		budget = v.opts.CancelBudget
	}

	var result entities.CancelResult
	err := v.mutate(ctx, "CancelVault", func(now int64) error {
		var err error
		result, err = v.engine.CancelVault(id, caller, now, budget)
		return err
	})
	return result, err
}

func (v *VaultUseCases) EscapeHatch(ctx context.Context, id int, caller string) (uint64, error) {
	var amount uint64
	err := v.mutate(ctx, "EscapeHatch", func(now int64) error {
		var err error
		amount, err = v.engine.EscapeHatch(id, caller, now)
		return err
	})
	return amount, err
}
