package consts

const (
	SecondsPerDay = 86400

	MaxChildren    = 100
	MaxGenerations = 10

	// DefaultCancelBudget is the number of node visits a single cancel call may spend.
	DefaultCancelBudget = 64

	EngineStateKey     = "engine"
	LoginMessagePrefix = "custody-login:"
	EventsExchange     = "custody.events"
)
