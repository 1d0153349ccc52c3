package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// PaymentOrder is a spender's request to pay a whitelisted recipient.
type PaymentOrder struct {
	Name      string
	Reference string
	Recipient string
	Amount    uint64
}

// SendToAuthorizedRecipient pays order.Recipient from the vault on behalf of
// spenderAddr. Spender and vault day buckets are both checked before either
// is committed. It returns the payment id.
func (e *Engine) SendToAuthorizedRecipient(id int, spenderAddr string, now int64, order PaymentOrder) (int, error) {
	n, err := e.get(id)
	if err != nil {
		return 0, err
	}

	if err := checkLive(n); err != nil {
		return 0, err
	}

	s, ok := n.registry.active(spenderAddr)
	if !ok {
		return 0, fmt.Errorf("%w: spender %s", ErrUnauthorized, spenderAddr)
	}

	if !s.window().Contains(now) {
		return 0, fmt.Errorf("%w: spender %s", ErrOutsideWindow, spenderAddr)
	}

	if !n.window().Contains(now) {
		return 0, fmt.Errorf("%w: vault %d", ErrOutsideWindow, id)
	}

	r, ok := s.recipient(order.Recipient)
	if !ok || !r.active {
		return 0, fmt.Errorf("%w: recipient %s", ErrUnauthorized, order.Recipient)
	}

	if now < r.activationTime {
		return 0, fmt.Errorf("%w: %s active from %d", ErrRecipientNotReady, order.Recipient, r.activationTime)
	}

	spenderNext, err := s.counter.Check(now, order.Amount, s.caps())
	if err != nil {
		return 0, fmt.Errorf("spender %s: %w", spenderAddr, err)
	}

	vaultNext, err := n.counter.Check(now, order.Amount, n.caps())
	if err != nil {
		return 0, fmt.Errorf("vault %d: %w", id, err)
	}

	if balance := n.vault.Balance(); balance < order.Amount {
		return 0, fmt.Errorf("%w: vault %d holds %d", ErrInsufficientFunds, id, balance)
	}

	if err := n.vault.Withdraw(order.Recipient, order.Amount); err != nil {
		return 0, err
	}

	s.counter = spenderNext
	n.counter = vaultNext

	payment := entities.Payment{
		ID:        len(n.payments),
		VaultID:   id,
		Name:      order.Name,
		Reference: order.Reference,
		Spender:   spenderAddr,
		Recipient: order.Recipient,
		Amount:    order.Amount,
		Timestamp: now,
		Paid:      true,
	}
	n.payments = append(n.payments, payment)

	e.emit(entities.Event{
		Kind:      consts.PaymentSent,
		VaultID:   id,
		Timestamp: now,
		Index:     payment.ID,
		Name:      order.Name,
		Reference: order.Reference,
		Address:   order.Recipient,
		Spender:   spenderAddr,
		Amount:    order.Amount,
	})

	if _, err := e.topUp(n, now); err != nil {
		return payment.ID, err
	}

	return payment.ID, nil
}

func (e *Engine) Payments(id int) ([]entities.Payment, error) {
	n, err := e.get(id)
	if err != nil {
		return nil, err
	}

	out := make([]entities.Payment, len(n.payments))
	copy(out, n.payments)

	return out, nil
}
