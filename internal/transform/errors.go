package transform

import "errors"

// Structural failures. These fail fast and propagate to the caller with a
// machine-readable reason; data-content problems never use them.
var (
	// ErrNoRecordset means no array of row-like objects exists in the document.
	// Expected for malformed or irrelevant inputs, not a defect.
	ErrNoRecordset = errors.New("NoRecordsetFound")

	// ErrWrongShape means the input cannot be interpreted as a record set at all
	// (e.g. a bare string or number at the root).
	ErrWrongShape = errors.New("WrongShape")
)
