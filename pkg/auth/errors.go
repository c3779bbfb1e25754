package auth

import (
	"fmt"

	"github.com/entrhq/pwharness/pkg/browser"
)

// Phase is a step of the interactive login flow.
type Phase string

const (
	PhaseLaunching  Phase = "launching"
	PhaseLoggingIn  Phase = "logging-in"
	PhasePersisting Phase = "persisting"
)

// FlowError reports a failed interactive login. Resources were closed on a
// best-effort basis before it was returned.
type FlowError struct {
	Engine browser.Engine
	Phase  Phase
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("Authentication failed with %s: %v", e.Engine, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}
