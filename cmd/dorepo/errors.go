package main

import (
	"fmt"

	"github.com/mesh-intelligence/dorepo/pkg/types"
)

// exitError carries the exit code a failed command should produce.
type exitError struct {
	code int
	op   string
	err  error
}

func (e *exitError) Error() string { return fmt.Sprintf("%s: %v", e.op, e.err) }

func (e *exitError) Unwrap() error { return e.err }

func userError(op string, err error) error {
	return &exitError{code: exitUserError, op: op, err: err}
}

func sysError(op string, err error) error {
	return &exitError{code: exitSysError, op: op, err: err}
}

// classify maps a repository error onto an exit code: not-found,
// precondition and conflict outcomes are user errors, storage failures are
// system errors.
func classify(op string, err error) error {
	switch types.Classify(err) {
	case types.OutcomeOK:
		return nil
	case types.OutcomeStorage:
		return sysError(op, err)
	default:
		return userError(op, err)
	}
}
