package engine

import "custody/pkg/consts"

// TimeWindow is a daily opening interval in seconds of the day. When Closing
// is before Opening the window wraps around midnight.
type TimeWindow struct {
	Opening int64
	Closing int64
}

func (w TimeWindow) Contains(now int64) bool {
	t := now % consts.SecondsPerDay
	if t < 0 {
		t += consts.SecondsPerDay
	}

	if w.Opening <= w.Closing {
		return t >= w.Opening && t < w.Closing
	}

	return t >= w.Opening || t < w.Closing
}
