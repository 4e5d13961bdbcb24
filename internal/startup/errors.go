package startup

import "errors"

// Error kinds shared by every backend. Backends wrap these with context
// (fmt.Errorf("...: %w", ErrNotFound)) and callers classify with errors.Is
// or KindOf.
var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrNotFound           = errors.New("entry not found")
	ErrNotSupported       = errors.New("not supported")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnresolved         = errors.New("entry could not be resolved")
)

// ErrorKind is the classification of an engine error.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindBackendUnavailable
	KindNotFound
	KindNotSupported
	KindPermissionDenied
	KindUnresolved
)

func (k ErrorKind) String() string {
	switch k {
	case KindBackendUnavailable:
		return "BackendUnavailable"
	case KindNotFound:
		return "NotFound"
	case KindNotSupported:
		return "NotSupported"
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindUnresolved:
		return "Unresolved"
	default:
		return "Unknown"
	}
}

// KindOf classifies err. A nil error has KindUnknown.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotSupported):
		return KindNotSupported
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrUnresolved):
		return KindUnresolved
	default:
		return KindUnknown
	}
}
