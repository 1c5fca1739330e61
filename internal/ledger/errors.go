package ledger

import "fmt"

// ValidationError reports malformed trade input. Never retried; surfaced
// verbatim to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NoBuysError means the scope exists but holds no BUY rows, so average
// cost is undefined. Reported as unavailable, never as zero or infinity.
type NoBuysError struct {
	Coin   string
	Person string
}

func (e *NoBuysError) Error() string {
	if e.Person != "" {
		return fmt.Sprintf("no buys recorded for %s by %s", e.Coin, e.Person)
	}
	return fmt.Sprintf("no buys recorded for %s", e.Coin)
}

// StoreError wraps a row-store I/O failure. The recorder does not retry;
// retry policy belongs to the caller or the store adapter.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
