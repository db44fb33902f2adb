// Package numerr defines the typed error kinds the power-flow core returns,
// per the propagation policy: local fallback is attempted once, and failure
// to recover surfaces as a typed error carrying the offending island/branch
// index. converged=false is never represented as an error.
package numerr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Wrap with errors.Is/errors.As via the helpers below.
var (
	ErrEmptyNetwork      = errors.New("numcircuit: empty network, no active buses")
	ErrInvalidControl    = errors.New("numcircuit: branch control mode inconsistent with endpoints")
	ErrNoSlack           = errors.New("numcircuit: island has no slack bus")
	ErrSingularSystem    = errors.New("powerflow: sparse solve returned a non-finite value")
	ErrNonConvergence    = errors.New("powerflow: iteration cap reached without convergence")
	ErrNumericalOverflow = errors.New("powerflow: HELM coefficient magnitude exceeded threshold")
)

// CompileError wraps a structural failure from numcircuit compilation with
// the offending device index, per spec §4.1 failure semantics.
type CompileError struct {
	Kind       error
	DeviceIdx  int
	DeviceName string
}

func (e *CompileError) Error() string {
	if e.DeviceName != "" {
		return fmt.Sprintf("%v (device %q, idx=%d)", e.Kind, e.DeviceName, e.DeviceIdx)
	}
	return e.Kind.Error()
}

func (e *CompileError) Unwrap() error { return e.Kind }

// SingularSystemError records which island/branch triggered a fallback and
// whether the fallback (e.g. pseudo-inverse) succeeded.
type SingularSystemError struct {
	Island     int
	BranchIdx  int
	FellBackOK bool
}

func (e *SingularSystemError) Error() string {
	if e.FellBackOK {
		return fmt.Sprintf("%v: island=%d branch=%d (recovered via pseudo-inverse)", ErrSingularSystem, e.Island, e.BranchIdx)
	}
	return fmt.Sprintf("%v: island=%d branch=%d (unrecoverable)", ErrSingularSystem, e.Island, e.BranchIdx)
}

func (e *SingularSystemError) Unwrap() error { return ErrSingularSystem }

// NewCompileError builds a CompileError wrapping one of the package sentinels.
func NewCompileError(kind error, deviceName string, deviceIdx int) *CompileError {
	return &CompileError{Kind: kind, DeviceIdx: deviceIdx, DeviceName: deviceName}
}
