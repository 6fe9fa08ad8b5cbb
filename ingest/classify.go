package ingest

import "strings"

// ErrorKind categorizes a failure for retry and batch-size decisions.
type ErrorKind int

const (
	// Unknown covers failures matching none of the known signals.
	Unknown ErrorKind = iota
	// RateLimited indicates the upstream service asked us to slow down.
	RateLimited
	// ServerError indicates a 5xx-class upstream fault.
	ServerError
	// OutOfMemory indicates memory exhaustion in the embedding backend.
	OutOfMemory
	// NetworkError indicates a connectivity or timeout fault.
	NetworkError
	// Validation indicates the request itself was rejected as malformed.
	Validation
)

// String returns a stable name for logging.
func (k ErrorKind) String() string {
	switch k {
	case RateLimited:
		return "rate_limited"
	case ServerError:
		return "server_error"
	case OutOfMemory:
		return "out_of_memory"
	case NetworkError:
		return "network_error"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

// Transient reports whether failures of this kind are worth retrying.
// Memory exhaustion and malformed input do not self-resolve by waiting.
func (k ErrorKind) Transient() bool {
	switch k {
	case RateLimited, ServerError, NetworkError:
		return true
	default:
		return false
	}
}

// Classification signals, checked in priority order against the lower-cased
// error text. Substring matching is best-effort; anything unmatched is Unknown.
var (
	rateLimitSignals = []string{"429", "rate limit", "too many requests", "quota"}
	serverSignals    = []string{"500", "502", "503", "504", "internal server error", "bad gateway", "service unavailable"}
	memorySignals    = []string{"out of memory", "oom"}
	networkSignals   = []string{"timeout", "timed out", "connection", "network", "unreachable", "eof", "broken pipe"}
	validationSignal = []string{"400", "invalid", "validation", "bad request", "malformed"}
)

// Classify maps an error to an ErrorKind. Pure and deterministic.
func Classify(err error) ErrorKind {
	if err == nil {
		return Unknown
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rateLimitSignals):
		return RateLimited
	case containsAny(msg, serverSignals):
		return ServerError
	case containsAny(msg, memorySignals):
		return OutOfMemory
	case containsAny(msg, networkSignals):
		return NetworkError
	case containsAny(msg, validationSignal):
		return Validation
	default:
		return Unknown
	}
}

func containsAny(msg string, signals []string) bool {
	for _, signal := range signals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}
