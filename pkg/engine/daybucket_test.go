package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDay(t *testing.T) {
	assert.Equal(t, int64(0), Day(0))
	assert.Equal(t, int64(0), Day(86399))
	assert.Equal(t, int64(1), Day(86400))
	assert.Equal(t, int64(-1), Day(-1))
}

func TestDayBucket_CheckAndAccumulate(t *testing.T) {
	caps := DailyCaps{DailyAmount: 10, DailyTxn: 2, TxnAmount: 8}

	t.Run("should reject what passes the daily amount and accept it the next day", func(t *testing.T) {
		var b DayBucket
		require.NoError(t, b.CheckAndAccumulate(t0+10, 8, caps))

		err := b.CheckAndAccumulate(t0+20, 3, caps)
		assert.ErrorIs(t, err, ErrLimitExceeded)
		assert.Equal(t, uint64(8), b.AccAmount)
		assert.Equal(t, uint64(1), b.AccTxns)

		require.NoError(t, b.CheckAndAccumulate(t0+day+20, 3, caps))
		assert.Equal(t, uint64(3), b.AccAmount)
		assert.Equal(t, uint64(1), b.AccTxns)
		assert.Equal(t, Day(t0+day), b.DayOfLastTx)
	})

	t.Run("should accept an amount equal to the transaction limit", func(t *testing.T) {
		var b DayBucket
		assert.NoError(t, b.CheckAndAccumulate(t0, 8, caps))
	})

	t.Run("should reject an amount above the transaction limit", func(t *testing.T) {
		var b DayBucket
		assert.ErrorIs(t, b.CheckAndAccumulate(t0, 9, caps), ErrLimitExceeded)
		assert.Equal(t, DayBucket{}, b)
	})

	t.Run("should cap the number of transactions per day", func(t *testing.T) {
		var b DayBucket
		require.NoError(t, b.CheckAndAccumulate(t0, 1, caps))
		require.NoError(t, b.CheckAndAccumulate(t0+1, 1, caps))
		assert.ErrorIs(t, b.CheckAndAccumulate(t0+2, 1, caps), ErrLimitExceeded)
	})

	t.Run("should keep accumulating within the same day", func(t *testing.T) {
		var b DayBucket
		require.NoError(t, b.CheckAndAccumulate(t0, 4, caps))
		require.NoError(t, b.CheckAndAccumulate(t0+day-1, 6, caps))
		assert.Equal(t, uint64(10), b.AccAmount)
	})

	t.Run("should not move back to an earlier day", func(t *testing.T) {
		var b DayBucket
		require.NoError(t, b.CheckAndAccumulate(t0+day, 4, caps))
		require.NoError(t, b.CheckAndAccumulate(t0, 4, caps))
		assert.Equal(t, Day(t0+day), b.DayOfLastTx)
		assert.Equal(t, uint64(8), b.AccAmount)
	})
}

func TestDayBucket_Check(t *testing.T) {
	b := DayBucket{AccAmount: 5, AccTxns: 1, DayOfLastTx: Day(t0)}
	next, err := b.Check(t0, 2, DailyCaps{DailyAmount: 10, DailyTxn: 5, TxnAmount: 10})
	require.NoError(t, err)

	assert.Equal(t, uint64(7), next.AccAmount)
	assert.Equal(t, uint64(5), b.AccAmount, "receiver must stay untouched")
}
