package types

import "errors"

// Failure kinds shared by the editing pipeline. Callers match them with errors.Is;
// the returned errors wrap one of these with operation details.
var (
	// ErrNotReady is returned when no image is loaded or the display size is unknown
	ErrNotReady = errors.New("editor not ready")
	// ErrDecodeFailure is returned when input bytes are not a supported image
	ErrDecodeFailure = errors.New("image decode failed")
	// ErrInvalidCropGeometry is returned when a crop resolves to an empty surface
	ErrInvalidCropGeometry = errors.New("invalid crop geometry")
	// ErrExportFailure is returned when the output cannot be encoded or saved
	ErrExportFailure = errors.New("export failed")
	// ErrSuperseded is returned by a load that a newer load replaced
	ErrSuperseded = errors.New("load superseded by a newer request")
)
