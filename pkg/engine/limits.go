package engine

import (
	"fmt"

	"custody/pkg/consts"
	"custody/pkg/entities"
)

func validateWindow(opening, closing int64) error {
	if opening < 0 || opening >= consts.SecondsPerDay {
		return fmt.Errorf("%w: opening time %d out of range", ErrInvalidLimits, opening)
	}
	if closing < 0 || closing > consts.SecondsPerDay {
		return fmt.Errorf("%w: closing time %d out of range", ErrInvalidLimits, closing)
	}
	return nil
}

func validateLimits(l entities.Limits) error {
	if l.HighestAcceptableBalance < l.LowestAcceptableBalance {
		return fmt.Errorf(
			"%w: highest acceptable balance %d below lowest %d",
			ErrInvalidLimits, l.HighestAcceptableBalance, l.LowestAcceptableBalance,
		)
	}

	if l.TxnAmountLimit > l.DailyAmountLimit {
		return fmt.Errorf(
			"%w: transaction limit %d above daily limit %d", ErrInvalidLimits, l.TxnAmountLimit, l.DailyAmountLimit,
		)
	}

	if l.WhiteListTimelock < 0 {
		return fmt.Errorf("%w: negative whitelist timelock", ErrInvalidLimits)
	}

	return validateWindow(l.OpeningTime, l.ClosingTime)
}

// validateAgainstParent bounds a child by its parent. Time windows are not
// compared; the timelock of a child may only be longer.
func validateAgainstParent(child, parent entities.Limits) error {
	switch {
	case child.DailyAmountLimit > parent.DailyAmountLimit:
		return fmt.Errorf("%w: daily amount limit %d > %d", ErrExceedsParentLimits, child.DailyAmountLimit, parent.DailyAmountLimit)
	case child.DailyTxnLimit > parent.DailyTxnLimit:
		return fmt.Errorf("%w: daily txn limit %d > %d", ErrExceedsParentLimits, child.DailyTxnLimit, parent.DailyTxnLimit)
	case child.TxnAmountLimit > parent.TxnAmountLimit:
		return fmt.Errorf("%w: txn amount limit %d > %d", ErrExceedsParentLimits, child.TxnAmountLimit, parent.TxnAmountLimit)
	case child.HighestAcceptableBalance > parent.HighestAcceptableBalance:
		return fmt.Errorf(
			"%w: highest acceptable balance %d > %d",
			ErrExceedsParentLimits, child.HighestAcceptableBalance, parent.HighestAcceptableBalance,
		)
	case child.WhiteListTimelock < parent.WhiteListTimelock:
		return fmt.Errorf(
			"%w: whitelist timelock %d shorter than %d",
			ErrExceedsParentLimits, child.WhiteListTimelock, parent.WhiteListTimelock,
		)
	}
	return nil
}

func validateSpenderLimits(s entities.SpenderLimits, vault entities.Limits) error {
	if err := validateWindow(s.OpeningTime, s.ClosingTime); err != nil {
		return err
	}

	switch {
	case s.DailyAmountLimit > vault.DailyAmountLimit:
		return fmt.Errorf("%w: spender daily amount limit %d > vault %d", ErrInvalidLimits, s.DailyAmountLimit, vault.DailyAmountLimit)
	case s.DailyTxnLimit > vault.DailyTxnLimit:
		return fmt.Errorf("%w: spender daily txn limit %d > vault %d", ErrInvalidLimits, s.DailyTxnLimit, vault.DailyTxnLimit)
	case s.TxnAmountLimit > vault.TxnAmountLimit:
		return fmt.Errorf("%w: spender txn amount limit %d > vault %d", ErrInvalidLimits, s.TxnAmountLimit, vault.TxnAmountLimit)
	}
	return nil
}
