package consts

import "strings"

type EventKind int

const (
	VaultsLimitChanged EventKind = 1 + iota
	SpenderAuthorized
	SpenderRemoved
	RecipientAuthorized
	RecipientRemoved
	NewVault
	TopUpVault
	VaultCanceled
	PaymentSent
	VaultInitialized
	OverflowReturned
	EscapeHatchCalled
	Deposit
)

var eventKindStrToEnum = map[string]EventKind{
	"VaultsLimitChanged":  VaultsLimitChanged,
	"SpenderAuthorized":   SpenderAuthorized,
	"SpenderRemoved":      SpenderRemoved,
	"RecipientAuthorized": RecipientAuthorized,
	"RecipientRemoved":    RecipientRemoved,
	"NewVault":            NewVault,
	"TopUpVault":          TopUpVault,
	"VaultCanceled":       VaultCanceled,
	"PaymentSent":         PaymentSent,
	"VaultInitialized":    VaultInitialized,
	"OverflowReturned":    OverflowReturned,
	"EscapeHatchCalled":   EscapeHatchCalled,
	"Deposit":             Deposit,
}

func (e EventKind) String() string {
	for name, kind := range eventKindStrToEnum {
		if kind == e {
			return name
		}
	}
	return "Unknown"
}

// RoutingKey is the broker routing key for the event, e.g. vault.paymentsent.
func (e EventKind) RoutingKey() string {
	return "vault." + strings.ToLower(e.String())
}

func EventKindStringToEnum(kind string) (EventKind, bool) {
	e, ok := eventKindStrToEnum[kind]
	return e, ok
}

func (e EventKind) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventKind) UnmarshalText(text []byte) error {
	kind, ok := EventKindStringToEnum(string(text))
	if !ok {
		return &UnknownEventKindError{Kind: string(text)}
	}
	*e = kind
	return nil
}

type UnknownEventKindError struct {
	Kind string
}

func (e *UnknownEventKindError) Error() string {
	return "unknown event kind " + e.Kind
}
