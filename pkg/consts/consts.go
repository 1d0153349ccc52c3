package consts

const (
	AppName = "custody"
)

const (
	UserAddress = "USER_ADDRESS"
	UserToken   = "USER_TOKEN"
	AdminUser   = "ADMIN_USER"
	UserChain   = "USER_CHAIN"
)

const (
	VaultStateTable    = "vault_state"
	VaultEventsTable   = "vault_events"
	VaultPaymentsTable = "vault_payments"
)

const (
	Algorand = "algorand"
)

const (
	DefaultPageSize = "100"
)
