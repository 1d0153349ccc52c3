package engine

import "custody/pkg/entities"

type recipient struct {
	id             int
	name           string
	address        string
	activationTime int64
	active         bool
}

type spender struct {
	id           int
	name         string
	address      string
	active       bool
	limits       entities.SpenderLimits
	counter      DayBucket
	recipients   []*recipient
	recipientIdx map[string]int
}

func (s *spender) caps() DailyCaps {
	return DailyCaps{
		DailyAmount: s.limits.DailyAmountLimit,
		DailyTxn:    s.limits.DailyTxnLimit,
		TxnAmount:   s.limits.TxnAmountLimit,
	}
}

func (s *spender) window() TimeWindow {
	return TimeWindow{Opening: s.limits.OpeningTime, Closing: s.limits.ClosingTime}
}

func (s *spender) recipient(address string) (*recipient, bool) {
	idx, ok := s.recipientIdx[address]
	if !ok {
		return nil, false
	}
	return s.recipients[idx], true
}

func (s *spender) addRecipient(name, address string, activationTime int64) *recipient {
	r := &recipient{
		id:             len(s.recipients),
		name:           name,
		address:        address,
		activationTime: activationTime,
		active:         true,
	}
	s.recipients = append(s.recipients, r)
	s.recipientIdx[address] = r.id
	return r
}

// registry holds the spenders of one vault controller. Ids are positions in
// insertion order and never change.
type registry struct {
	spenders   []*spender
	spenderIdx map[string]int
}

func newRegistry() registry {
	return registry{spenderIdx: make(map[string]int)}
}

func (r *registry) lookup(address string) (*spender, bool) {
	idx, ok := r.spenderIdx[address]
	if !ok {
		return nil, false
	}
	return r.spenders[idx], true
}

// active returns the spender only if it exists and has not been removed.
func (r *registry) active(address string) (*spender, bool) {
	s, ok := r.lookup(address)
	if !ok || !s.active {
		return nil, false
	}
	return s, true
}

// upsert updates an existing spender in place or appends a new one. The
// boolean reports whether a new entry was created.
func (r *registry) upsert(name, address string, limits entities.SpenderLimits) (*spender, bool) {
	if s, ok := r.lookup(address); ok {
		s.name = name
		s.limits = limits
		s.active = true
		return s, false
	}

	s := &spender{
		id:           len(r.spenders),
		name:         name,
		address:      address,
		active:       true,
		limits:       limits,
		recipientIdx: make(map[string]int),
	}
	r.spenders = append(r.spenders, s)
	r.spenderIdx[address] = s.id

	return s, true
}

func (r *registry) views() []entities.SpenderState {
	out := make([]entities.SpenderState, 0, len(r.spenders))
	for _, s := range r.spenders {
		recipients := make([]entities.RecipientState, 0, len(s.recipients))
		for _, rc := range s.recipients {
			recipients = append(recipients, entities.RecipientState{
				ID:             rc.id,
				Name:           rc.name,
				Address:        rc.address,
				ActivationTime: rc.activationTime,
				Active:         rc.active,
			})
		}
		out = append(out, entities.SpenderState{
			ID:         s.id,
			Name:       s.name,
			Address:    s.address,
			Active:     s.active,
			Limits:     s.limits,
			Counter:    s.counter.view(),
			Recipients: recipients,
		})
	}
	return out
}

func registryFromViews(views []entities.SpenderState) registry {
	r := newRegistry()
	for _, v := range views {
		s := &spender{
			id:           len(r.spenders),
			name:         v.Name,
			address:      v.Address,
			active:       v.Active,
			limits:       v.Limits,
			counter:      bucketFromView(v.Counter),
			recipientIdx: make(map[string]int),
		}
		for _, rv := range v.Recipients {
			rc := s.addRecipient(rv.Name, rv.Address, rv.ActivationTime)
			rc.active = rv.Active
		}
		r.spenders = append(r.spenders, s)
		r.spenderIdx[s.address] = s.id
	}
	return r
}
