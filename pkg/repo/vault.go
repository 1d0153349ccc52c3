package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/gocql/gocql"

	"custody/config"
	"custody/pkg/consts"
	"custody/pkg/entities"
	"custody/utilities"
)

var (
	ErrStateNotFound    = errors.New("vault state not found")
	ErrAmountOutOfRange = errors.New("stored amount out of range")
)

type VaultRepo struct {
	db   *gocql.Session
	conf *config.CustodyConfModel
}

// VaultRepoImply persists engine dumps and the event and payment history
// derived from them.
type VaultRepoImply interface {
	SaveState(ctx context.Context, key string, state []byte, version int64) error
	LoadState(ctx context.Context, key string) ([]byte, int64, error)
	SaveEvents(ctx context.Context, events []entities.Event) error
	GetEvents(ctx context.Context, vaultID, pageSize int, pageState []byte) ([]entities.Event, []byte, error)
	SavePayment(ctx context.Context, payment entities.Payment) error
	GetPayments(ctx context.Context, vaultID, pageSize int, pageState []byte) ([]entities.Payment, []byte, error)
}

func NewVaultRepo(db *gocql.Session, conf *config.CustodyConfModel) VaultRepoImply {
	return &VaultRepo{db: db, conf: conf}
}

func (v *VaultRepo) table(name string) string {
	return fmt.Sprintf("%s.%s", v.conf.DB.Keyspace, name)
}

func (v *VaultRepo) SaveState(ctx context.Context, key string, state []byte, version int64) error {
	log := utilities.NewLoggerWithFields("SaveState", map[string]interface{}{
		"key":     key,
		"version": version,
	})

	query := fmt.Sprintf(
		"INSERT INTO %s (id, state, version, updated) VALUES %s",
		v.table(consts.VaultStateTable), utilities.DBMultiValuePlaceholders(4),
	)
	if err := v.db.Query(query, key, state, version, utilities.TimeNow()).WithContext(ctx).Exec(); err != nil {
		log.WithError(err).Error("failed to save vault state")
		return fmt.Errorf("failed to save vault state %s: %w", key, err)
	}

	log.Debugf("saved %d bytes of vault state", len(state))

	return nil
}

func (v *VaultRepo) LoadState(ctx context.Context, key string) ([]byte, int64, error) {
	var (
		state   []byte
		version int64
	)

	query := fmt.Sprintf("SELECT state, version FROM %s WHERE id = ?", v.table(consts.VaultStateTable))
	if err := v.db.Query(query, key).WithContext(ctx).Scan(&state, &version); err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, 0, ErrStateNotFound
		}
		return nil, 0, fmt.Errorf("failed to load vault state %s: %w", key, err)
	}

	return state, version, nil
}

func (v *VaultRepo) SaveEvents(ctx context.Context, events []entities.Event) error {
	if len(events) == 0 {
		return nil
	}

	log := utilities.NewLogger("SaveEvents")

	query := fmt.Sprintf(
		"INSERT INTO %s (vault_id, created, uuid, kind, event_time, payload) VALUES %s",
		v.table(consts.VaultEventsTable), utilities.DBMultiValuePlaceholders(6),
	)

	batch := v.db.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
		}
		batch.Query(query, event.VaultID, gocql.TimeUUID(), event.ID, event.Kind.String(), event.Timestamp, string(payload))
	}

	if err := v.db.ExecuteBatch(batch); err != nil {
		log.WithError(err).Errorf("failed to save %d events", len(events))
		return fmt.Errorf("failed to save events: %w", err)
	}

	return nil
}

func (v *VaultRepo) GetEvents(
	ctx context.Context, vaultID, pageSize int, pageState []byte,
) ([]entities.Event, []byte, error) {
	log := utilities.NewLoggerWithFields("GetEvents", map[string]interface{}{
		"vault": vaultID,
	})

	query := fmt.Sprintf("SELECT payload FROM %s WHERE vault_id = ?", v.table(consts.VaultEventsTable))

	iter := v.db.Query(query, vaultID).WithContext(ctx).PageSize(pageSize).PageState(pageState).Iter()
	currPageState := iter.PageState()

	var (
		payload string
		events  = make([]entities.Event, 0)
	)
	for iter.Scan(&payload) {
		var event entities.Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			log.WithError(err).Warn("skipping undecodable event")
			continue
		}
		events = append(events, event)
	}

	if err := iter.Close(); err != nil {
		if !errors.Is(err, gocql.ErrNotFound) {
			log.WithError(err).Error("failed to retrieve events")
			return nil, nil, fmt.Errorf("failed to retrieve events: %w", err)
		}
	}

	return events, currPageState, nil
}

func (v *VaultRepo) SavePayment(ctx context.Context, payment entities.Payment) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (vault_id, payment_id, name, reference, spender, recipient, amount, paid_time) VALUES %s",
		v.table(consts.VaultPaymentsTable), utilities.DBMultiValuePlaceholders(8),
	)

	err := v.db.Query(
		query, payment.VaultID, payment.ID, payment.Name, payment.Reference,
		payment.Spender, payment.Recipient, varintAmount(payment.Amount), payment.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		utilities.NewLogger("SavePayment").WithError(err).Errorf("failed to save payment %d", payment.ID)
		return fmt.Errorf("failed to save payment: %w", err)
	}

	return nil
}

func (v *VaultRepo) GetPayments(
	ctx context.Context, vaultID, pageSize int, pageState []byte,
) ([]entities.Payment, []byte, error) {
	log := utilities.NewLoggerWithFields("GetPayments", map[string]interface{}{
		"vault": vaultID,
	})

	var (
		paymentID                           int
		name, reference, spender, recipient string
		paidTime                            int64
		amount                              = new(big.Int)
	)

	query := fmt.Sprintf(
		"SELECT payment_id, name, reference, spender, recipient, amount, paid_time FROM %s WHERE vault_id = ?",
		v.table(consts.VaultPaymentsTable),
	)

	iter := v.db.Query(query, vaultID).WithContext(ctx).PageSize(pageSize).PageState(pageState).Iter()
	currPageState := iter.PageState()

	payments := make([]entities.Payment, 0)
	for iter.Scan(&paymentID, &name, &reference, &spender, &recipient, amount, &paidTime) {
		value, err := amountFromVarint(amount)
		if err != nil {
			log.WithError(err).Warnf("skipping payment %d", paymentID)
			continue
		}
		payments = append(payments, entities.Payment{
			ID:        paymentID,
			VaultID:   vaultID,
			Name:      name,
			Reference: reference,
			Spender:   spender,
			Recipient: recipient,
			Amount:    value,
			Timestamp: paidTime,
			Paid:      true,
		})
	}

	if err := iter.Close(); err != nil {
		if !errors.Is(err, gocql.ErrNotFound) {
			log.WithError(err).Error("failed to retrieve payments")
			return nil, nil, fmt.Errorf("failed to retrieve payments: %w", err)
		}
	}

	return payments, currPageState, nil
}

// amounts span the whole uint64 range, wider than a cassandra bigint
func varintAmount(amount uint64) *big.Int {
	return new(big.Int).SetUint64(amount)
}

func amountFromVarint(v *big.Int) (uint64, error) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, v.String())
	}
	return v.Uint64(), nil
}
