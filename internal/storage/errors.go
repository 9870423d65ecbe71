package storage

import "acredita/pkg/domainerrors"

var (
	// ErrNotFound keeps storage-specific 404s consistent across in-memory and
	// postgres implementations.
	ErrNotFound = domainerrors.New(domainerrors.CodeNotFound, "record not found")

	// ErrConflict signals a lost compare-and-swap, e.g. acknowledging a report
	// that another request locked first.
	ErrConflict = domainerrors.New(domainerrors.CodeConflict, "conflicting concurrent update")
)
