package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coastalmech/apflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid canonical record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord enforces the fields without which a row is useless to
// the ledger import.
func validateRecord(rec *model.CanonicalRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if rec.Document == "" {
		return fmt.Errorf("%w: missing document key", ErrInvalidRecord)
	}
	if rec.BatchCode == "" {
		return fmt.Errorf("%w: missing batch code", ErrInvalidRecord)
	}
	if rec.VendorCode == "" {
		return fmt.Errorf("%w: missing vendor code", ErrInvalidRecord)
	}
	if rec.GLAccount == "" {
		return fmt.Errorf("%w: missing GL account", ErrInvalidRecord)
	}
	switch rec.Type {
	case model.InvoiceTypeIncoming, model.InvoiceTypeCredit:
	default:
		return fmt.Errorf("%w: invalid invoice type %q", ErrInvalidRecord, rec.Type)
	}
	return nil
}
