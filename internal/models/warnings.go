package models

// WarningCode categorizes warnings by subsystem.
// W1xxx = debtor store, W2xxx = entity store.
type WarningCode string

const (
	WarnDebtorUpsertFailed WarningCode = "W1001" // debtor aggregate could not be persisted
	WarnEntityUpsertFailed WarningCode = "W2001" // entity aggregate could not be persisted
)

// Warning represents a non-fatal issue encountered during an import run.
type Warning struct {
	Code    WarningCode `json:"code"`
	Key     string      `json:"key"`
	Message string      `json:"message"`
}
