package orchestrator

import "github.com/clcc2019/stock-intraday-trading/internal/provider"

// state is the position of one fetch in the failover walk. Every transition
// lives in next() so the retry policy is testable without any network.
type state int

const (
	// stateTrying: an attempt against the current provider is due.
	stateTrying state = iota
	// stateRetrying: the same provider gets another attempt.
	stateRetrying
	// stateNextProvider: the current provider is exhausted, move on.
	stateNextProvider
	// stateSucceeded: a provider returned a payload.
	stateSucceeded
	// stateExhausted: every registered provider failed.
	stateExhausted
	// stateCancelled: the caller's context fired, stop immediately.
	stateCancelled
)

func (s state) String() string {
	switch s {
	case stateTrying:
		return "trying"
	case stateRetrying:
		return "retrying"
	case stateNextProvider:
		return "next_provider"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	case stateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// next decides the state after a failed attempt. attempt is zero-based.
//
// Rate limits and timeouts move to the next provider at once: retrying the
// same source only burns more quota. Malformed and empty responses get one
// same-provider retry (transient parse glitches), connection failures retry
// up to maxRetries.
func next(reason provider.Reason, attempt, maxRetries int) state {
	switch reason {
	case provider.ReasonCancelled:
		return stateCancelled
	case provider.ReasonRateLimited, provider.ReasonTimeout:
		return stateNextProvider
	case provider.ReasonMalformed, provider.ReasonNotFound:
		if attempt == 0 {
			return stateRetrying
		}
		return stateNextProvider
	default:
		if attempt+1 < maxRetries {
			return stateRetrying
		}
		return stateNextProvider
	}
}
