package store

// BulkConflict describes one payload rejected during a bulk create.
type BulkConflict struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// BulkCreateResult reports the outcome of a bulk device creation. Rejected
// payloads never abort the batch; they are listed so the operator can
// correct and retry without re-pasting.
type BulkCreateResult struct {
	Created   int            `json:"created"`
	Conflicts []BulkConflict `json:"conflicts,omitempty"`
}
