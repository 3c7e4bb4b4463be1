package types

// Event is the wire form of a ledger state change: a type tag plus a flat
// attribute map. Attributes carry every identifier and amount needed to
// reconstruct the state transition from a log stream alone.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
