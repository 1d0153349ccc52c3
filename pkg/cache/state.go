package cache

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"custody/pkg/entities"
)

// StateCache holds rendered controller snapshots between mutations.
type StateCache struct {
	c *gocache.Cache
}

func NewStateCache(ttl time.Duration) *StateCache {
	return &StateCache{c: gocache.New(ttl, 2*ttl)}
}

func (s *StateCache) Get(id int) (entities.ControllerState, bool) {
	v, ok := s.c.Get(strconv.Itoa(id))
	if !ok {
		return entities.ControllerState{}, false
	}
	st, ok := v.(entities.ControllerState)
	return st, ok
}

func (s *StateCache) Set(id int, st entities.ControllerState) {
	s.c.SetDefault(strconv.Itoa(id), st)
}

// Flush drops every snapshot. Any mutation can change ancestors' and
// descendants' views, so invalidation is global.
func (s *StateCache) Flush() {
	s.c.Flush()
}

func (s *StateCache) Len() int {
	return s.c.ItemCount()
}
