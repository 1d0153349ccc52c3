package entities

import "custody/pkg/consts"

// Event is an audit record emitted by a vault controller. Index holds the
// spender, recipient, child or payment id depending on Kind.
type Event struct {
	ID            string           `json:"id,omitempty"`
	Kind          consts.EventKind `json:"kind"`
	VaultID       int              `json:"vault_id"`
	Timestamp     int64            `json:"timestamp"`
	Index         int              `json:"index"`
	ChildID       int              `json:"child_id,omitempty"`
	Name          string           `json:"name,omitempty"`
	Address       string           `json:"address,omitempty"`
	Spender       string           `json:"spender,omitempty"`
	Reference     string           `json:"reference,omitempty"`
	Amount        uint64           `json:"amount,omitempty"`
	Limits        *Limits          `json:"limits,omitempty"`
	SpenderLimits *SpenderLimits   `json:"spender_limits,omitempty"`
}
