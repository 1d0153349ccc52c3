package usecases

import (
	"context"
	"errors"
	"sync"

	"custody/pkg/entities"
	"custody/pkg/repo"
)

type fakeVaultRepo struct {
	mu        sync.Mutex
	state     []byte
	version   int64
	saves     int
	failSaves bool
	events    []entities.Event
	payments  []entities.Payment
}

func (f *fakeVaultRepo) SaveState(_ context.Context, _ string, state []byte, version int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaves {
		return errors.New("cassandra unavailable")
	}
	f.state = append([]byte(nil), state...)
	f.version = version
	f.saves++
	return nil
}

func (f *fakeVaultRepo) LoadState(_ context.Context, _ string) ([]byte, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == nil {
		return nil, 0, repo.ErrStateNotFound
	}
	return f.state, f.version, nil
}

func (f *fakeVaultRepo) SaveEvents(_ context.Context, events []entities.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeVaultRepo) GetEvents(_ context.Context, vaultID, _ int, _ []byte) ([]entities.Event, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Event, 0)
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].VaultID == vaultID {
			out = append(out, f.events[i])
		}
	}
	return out, nil, nil
}

func (f *fakeVaultRepo) SavePayment(_ context.Context, payment entities.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakeVaultRepo) GetPayments(_ context.Context, vaultID, _ int, _ []byte) ([]entities.Payment, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entities.Payment, 0)
	for _, p := range f.payments {
		if p.VaultID == vaultID {
			out = append(out, p)
		}
	}
	return out, nil, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []entities.Event
}

func (f *fakePublisher) PublishEvent(_ context.Context, event entities.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() {}

// manualClock is advanced by tests.
type manualClock struct {
	mu  sync.Mutex
	now int64
}

func (c *manualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// blockingPublisher holds every publish until release is closed.
type blockingPublisher struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingPublisher) PublishEvent(context.Context, entities.Event) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return nil
}

func (b *blockingPublisher) Close() {}
