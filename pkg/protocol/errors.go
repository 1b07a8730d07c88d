package protocol

import "fmt"

// ConnectorAuthError marks an unrecoverable credential failure for one
// automation's owner. The scheduler skips the automation with a warning and
// the tick carries on.
type ConnectorAuthError struct {
	Service string
	Err     error
}

func (e *ConnectorAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed for %s: %v", e.Service, e.Err)
	}

	return "authentication failed for " + e.Service
}

func (e *ConnectorAuthError) Unwrap() error {
	return e.Err
}

// ConnectorAPIError marks a failed remote fetch. The scheduler treats it as
// "no items this tick" for the affected automation.
type ConnectorAPIError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *ConnectorAPIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API request failed with status %d: %v", e.Service, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("%s API request failed: %v", e.Service, e.Err)
}

func (e *ConnectorAPIError) Unwrap() error {
	return e.Err
}
