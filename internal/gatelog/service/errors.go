package service

import "errors"

var (
	// ErrStorageWrite marks a mutation whose in-memory effect was applied
	// but whose snapshot could not be persisted.
	ErrStorageWrite = errors.New("ledger snapshot not persisted")

	// ErrDeliveryFailed is the single aggregate failure of an export run.
	// The ledger is left untouched; the operator may retry.
	ErrDeliveryFailed = errors.New("export delivery failed")

	ErrExportInProgress = errors.New("an export is already running")
	ErrNotConfirmed     = errors.New("action not confirmed by operator")
	ErrUnknownOperator  = errors.New("unknown operator")
	ErrNotLoggedIn      = errors.New("no operator logged in")
	ErrInvalidRecord    = errors.New("invalid access record")
	ErrInvalidPhoto     = errors.New("photo payload is not a valid data URL")
)
