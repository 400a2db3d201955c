// Package codecerr defines the error taxonomy shared by the lossy and
// lossless cores: out-of-memory, bitstream corruption, invalid caller
// parameters, and user-initiated abort. Call sites wrap one of the four
// sentinels with errors.Wrap/Wrapf so the taxonomy survives while the
// wrapped message still carries call-site context.
package codecerr

import "github.com/pkg/errors"

// Sentinel taxonomy values. Compare with errors.Cause(err) == OutOfMemory
// (or errors.Is, which also unwraps pkg/errors chains) rather than string
// matching.
var (
	// OutOfMemory indicates a buffer or arena allocation failed, typically
	// because an overflow-checked size computation rejected the request.
	OutOfMemory = errors.New("codec: out of memory")

	// BitstreamError indicates the input bitstream violated an invariant
	// the parser depends on: a corrupt partition length, an out-of-range
	// coefficient, or a failed alpha-plane decode.
	BitstreamError = errors.New("codec: bitstream error")

	// InvalidParam indicates the caller supplied a rejected configuration,
	// e.g. a crop rectangle outside the frame or an unsupported knob value.
	InvalidParam = errors.New("codec: invalid parameter")

	// UserAbort indicates the output sink's put callback returned false.
	// It is not a fault: it unwinds without being recorded as an error
	// status on the decoder handle.
	UserAbort = errors.New("codec: aborted by caller")
)

// IsAbort reports whether err (or any error it wraps) is UserAbort.
func IsAbort(err error) bool {
	return errors.Is(err, UserAbort)
}

// IsFatal reports whether err is a fault that must abort the current frame:
// any non-nil error other than UserAbort. Besides the three fault kinds
// (OutOfMemory, BitstreamError, InvalidParam) this includes errors that wrap
// none of the sentinels.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !IsAbort(err)
}
