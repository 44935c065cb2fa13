package exchange

import (
	"errors"
	"fmt"
)

// NetworkError marks a transient transport failure: the exchange was
// unreachable or the request timed out.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error during %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ExchangeError marks a business-logic failure reported by the exchange:
// a non-2xx status or an error payload (JSON or plain text).
type ExchangeError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("exchange error during %s: code %s: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("exchange error during %s: status %d: %s", e.Op, e.Status, e.Message)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsExchange reports whether err is (or wraps) an ExchangeError.
func IsExchange(err error) bool {
	var ee *ExchangeError
	return errors.As(err, &ee)
}
