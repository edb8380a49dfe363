package ledger

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Stage is our internal view of how far an order's fulfillment has
// progressed. It is independent of the remote status: the remote side may
// auto-advance while our stage lags until the next reconciliation.
//
// Stage transitions:
//
//	New ──> Shipped ──> InTransit ──> Done
//
// Stages only move forward. An attempt to store a lower stage over a higher
// one is dropped silently (logged by the repository, never applied).
type Stage int

const (
	// StageUnknown represents an invalid or undefined stage.
	// This value (0) helps catch uninitialized Stage values.
	StageUnknown Stage = iota

	// StageNew is recorded on first observation of an order, before any
	// allocation has happened.
	StageNew

	// StageShipped means a credential was allocated, the delivery message
	// was attempted, and shipment was confirmed remotely.
	StageShipped

	// StageInTransit mirrors the operator-triggered dispatch handoff.
	StageInTransit

	// StageDone is the terminal stage: confirmed receipt.
	StageDone
)

func stageStrings() map[Stage]string {
	return map[Stage]string{
		StageUnknown:   "Unknown",
		StageNew:       "New",
		StageShipped:   "Shipped",
		StageInTransit: "InTransit",
		StageDone:      "Done",
	}
}

// String returns the human-readable name of the stage.
// Implements fmt.Stringer; safe on any value, including invalid ones.
func (s Stage) String() string {
	if str, ok := stageStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate checks that the stage is one of the defined lifecycle positions.
func (s Stage) Validate() error {
	if s < StageNew || s > StageDone {
		return errs.NewValueIsInvalidErrorWithCause("stage is invalid",
			fmt.Errorf("%d is not a valid stage", s))
	}
	return nil
}

// Before reports whether the stage precedes other in the lifecycle.
func (s Stage) Before(other Stage) bool {
	return s < other
}

// StageFromString parses a stored stage name. Used by repositories and
// read models when restoring entries from the database.
func StageFromString(s string) (Stage, error) {
	for stage, str := range stageStrings() {
		if str == s && stage != StageUnknown {
			return stage, nil
		}
	}
	return StageUnknown, errs.NewValueIsInvalidErrorWithCause("stage is invalid",
		fmt.Errorf("%q is not a valid stage name", s))
}
