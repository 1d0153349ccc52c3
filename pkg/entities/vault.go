package entities

// Limits configures a vault controller. Amounts are in the smallest currency
// unit, opening and closing times are seconds of the day.
type Limits struct {
	DailyAmountLimit         uint64 `json:"daily_amount_limit"`
	DailyTxnLimit            uint64 `json:"daily_txn_limit"`
	TxnAmountLimit           uint64 `json:"txn_amount_limit"`
	OpeningTime              int64  `json:"opening_time"`
	ClosingTime              int64  `json:"closing_time"`
	WhiteListTimelock        int64  `json:"white_list_timelock"`
	HighestAcceptableBalance uint64 `json:"highest_acceptable_balance"`
	LowestAcceptableBalance  uint64 `json:"lowest_acceptable_balance"`
}

type SpenderLimits struct {
	DailyAmountLimit uint64 `json:"daily_amount_limit"`
	DailyTxnLimit    uint64 `json:"daily_txn_limit"`
	TxnAmountLimit   uint64 `json:"txn_amount_limit"`
	OpeningTime      int64  `json:"opening_time"`
	ClosingTime      int64  `json:"closing_time"`
}

type Counter struct {
	AccAmountInDay uint64 `json:"acc_amount_in_day"`
	AccTxsInDay    uint64 `json:"acc_txs_in_day"`
	DayOfLastTx    int64  `json:"day_of_last_tx"`
}

type RecipientState struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	ActivationTime int64  `json:"activation_time"`
	Active         bool   `json:"active"`
}

type SpenderState struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	Active     bool             `json:"active"`
	Limits     SpenderLimits    `json:"limits"`
	Counter    Counter          `json:"counter"`
	Recipients []RecipientState `json:"recipients"`
}

type Payment struct {
	ID        int    `json:"id"`
	VaultID   int    `json:"vault_id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Spender   string `json:"spender"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Paid      bool   `json:"paid"`
}

// ControllerState is the read-only export of a vault controller and its subtree.
type ControllerState struct {
	ID                     int               `json:"id"`
	ParentID               *int              `json:"parent_id,omitempty"`
	Generation             int               `json:"generation"`
	Name                   string            `json:"name"`
	Owner                  string            `json:"owner"`
	VaultAddress           string            `json:"vault_address"`
	Balance                uint64            `json:"balance"`
	BalanceDisplay         string            `json:"balance_display,omitempty"`
	Currency               string            `json:"currency,omitempty"`
	ParentSink             string            `json:"parent_sink"`
	EscapeHatchCaller      string            `json:"escape_hatch_caller,omitempty"`
	EscapeHatchDestination string            `json:"escape_hatch_destination,omitempty"`
	ParentVault            string            `json:"parent_vault,omitempty"`
	BaseToken              string            `json:"base_token,omitempty"`
	Limits                 Limits            `json:"limits"`
	Counter                Counter           `json:"counter"`
	Initialized            bool              `json:"initialized"`
	Canceled               bool              `json:"canceled"`
	Children               []ControllerState `json:"children"`
	Spenders               []SpenderState    `json:"spenders"`
	Payments               int               `json:"payments"`
}

type ChildVault struct {
	ParentID int `json:"parent_id"`
	Index    int `json:"index"`
	ID       int `json:"id"`
}

type CancelResult struct {
	Canceled  []int `json:"canceled"`
	Done      bool  `json:"done"`
	Remaining int   `json:"remaining_budget"`
}

type VaultHealth struct {
	Restored bool  `json:"restored"`
	Vaults   int   `json:"vaults"`
	Roots    int   `json:"roots"`
	Version  int64 `json:"version"`
	Dirty    bool  `json:"dirty"`
}
