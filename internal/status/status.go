// Package status defines the uniform result envelope shared by every
// registry operation: a numeric status code plus a human-readable detail
// string. A nil *Status means success.
package status

// Code identifies the outcome of a registry operation. The numeric values
// match the wire enum in spec section 4.C and must not be renumbered.
type Code int32

const (
	// SUCCESS is never written to a StatusPacket; its absence on the wire
	// means success.
	SUCCESS Code = 0

	// NOTFOUND means the named interface does not exist, or the named
	// endpoint does not exist within it.
	NOTFOUND Code = 1

	// DUPLICATE means a URL already registered in a interface group was
	// registered again. Reserved: the current handler set reports
	// SERVERROR for this condition instead, per spec section 9.
	DUPLICATE Code = 2

	// BADTOKEN means the registry failed to mint a token (authorize,
	// register).
	BADTOKEN Code = 3

	// AUTHERROR means token verification rejected the token: it was
	// empty, malformed, expired, too old, or not signed by this
	// registry's key.
	AUTHERROR Code = 4

	// SERVERROR means an internal inconsistency or unexpected store
	// failure.
	SERVERROR Code = 5
)

func (c Code) String() string {
	switch c {
	case SUCCESS:
		return "SUCCESS"
	case NOTFOUND:
		return "NOTFOUND"
	case DUPLICATE:
		return "DUPLICATE"
	case BADTOKEN:
		return "BADTOKEN"
	case AUTHERROR:
		return "AUTHERROR"
	case SERVERROR:
		return "SERVERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is the failure half of a reply envelope. A handler that succeeds
// returns a nil *Status; the zero value is never sent on its own.
type Status struct {
	Code    Code
	Message string
}

// New builds a Status with the given code and message.
func New(code Code, message string) *Status {
	return &Status{Code: code, Message: message}
}

func (s *Status) Error() string {
	if s == nil {
		return ""
	}
	return s.Message
}
