package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

// Day returns the day bucket a unix timestamp falls into.
func Day(t int64) int64 {
	d := t / consts.SecondsPerDay
	if t%consts.SecondsPerDay < 0 {
		d--
	}
	return d
}

// DailyCaps are the limits a DayBucket is checked against.
type DailyCaps struct {
	DailyAmount uint64
	DailyTxn    uint64
	TxnAmount   uint64
}

// DayBucket accumulates the amount and number of transactions of a single day.
// Counters are only meaningful for DayOfLastTx.
type DayBucket struct {
	AccAmount   uint64
	AccTxns     uint64
	DayOfLastTx int64
}

// Check returns the bucket that would result from accepting amount at now,
// leaving the receiver untouched.
func (b DayBucket) Check(now int64, amount uint64, caps DailyCaps) (DayBucket, error) {
	next := b
	if day := Day(now); day > next.DayOfLastTx {
		next = DayBucket{DayOfLastTx: day}
	}

	if amount > caps.TxnAmount {
		return b, fmt.Errorf("%w: amount %d above per-transaction limit %d", ErrLimitExceeded, amount, caps.TxnAmount)
	}

	if next.AccTxns >= caps.DailyTxn {
		return b, fmt.Errorf("%w: daily transaction limit %d reached", ErrLimitExceeded, caps.DailyTxn)
	}

	if amount > caps.DailyAmount || next.AccAmount > caps.DailyAmount-amount {
		return b, fmt.Errorf(
			"%w: %d already spent today, %d more would pass daily limit %d",
			ErrLimitExceeded, next.AccAmount, amount, caps.DailyAmount,
		)
	}

	next.AccAmount += amount
	next.AccTxns++

	return next, nil
}

// CheckAndAccumulate commits amount into the bucket if caps allow it.
func (b *DayBucket) CheckAndAccumulate(now int64, amount uint64, caps DailyCaps) error {
	next, err := b.Check(now, amount, caps)
	if err != nil {
		return err
	}
	*b = next
	return nil
}

func (b DayBucket) view() entities.Counter {
	return entities.Counter{
		AccAmountInDay: b.AccAmount,
		AccTxsInDay:    b.AccTxns,
		DayOfLastTx:    b.DayOfLastTx,
	}
}

func bucketFromView(c entities.Counter) DayBucket {
	return DayBucket{AccAmount: c.AccAmountInDay, AccTxns: c.AccTxsInDay, DayOfLastTx: c.DayOfLastTx}
}
