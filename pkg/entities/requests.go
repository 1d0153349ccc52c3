package entities

type CreateRootRequest struct {
	Name                   string `json:"name"`
	Owner                  string `json:"owner"`
	EscapeHatchCaller      string `json:"escape_hatch_caller"`
	EscapeHatchDestination string `json:"escape_hatch_destination"`
	ParentVault            string `json:"parent_vault"`
	BaseToken              string `json:"base_token"`
}

type CreateChildRequest struct {
	Name string `json:"name"`
}

type InitializeChildRequest struct {
	Admin string `json:"admin"`
	Limits
}

type AuthorizeSpenderRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	SpenderLimits
}

type AuthorizeRecipientRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PaymentRequest carries the amount either in base units or, through Value,
// as a decimal string in display units.
type PaymentRequest struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Value     string `json:"value,omitempty"`
}

type AmountRequest struct {
	Amount uint64 `json:"amount"`
	Value  string `json:"value,omitempty"`
}

type CancelRequest struct {
	Budget int `json:"budget"`
}

type LoginRequest struct {
	Chain     string `json:"chain"`
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}
