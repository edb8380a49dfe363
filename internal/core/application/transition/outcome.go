package transition

import (
	"fulfillment/internal/core/domain/model/remote"
)

// Status classifies the result of a driver operation. Every failure path is
// typed: callers can tell "retry later" (Unavailable) from "needs manual
// help" (Rejected) from "already done" (AlreadyAtTarget) without inspecting
// error text.
type Status int

const (
	// Succeeded means the remote transition was issued and accepted.
	Succeeded Status = iota + 1

	// AlreadyAtTarget means the remote order was already at or past the
	// requested stage, so no mutating call was issued. The remote side may
	// auto-advance between our observations; this is expected, not an error.
	AlreadyAtTarget

	// Rejected means the remote API refused the transition and a re-fetch
	// confirmed the target was not reached. Needs manual resolution;
	// retrying the identical request is pointless.
	Rejected

	// Unavailable means the remote API could not answer within the bounded
	// retry budget. Safe to retry later.
	Unavailable
)

func statusStrings() map[Status]string {
	return map[Status]string{
		Succeeded:       "Succeeded",
		AlreadyAtTarget: "AlreadyAtTarget",
		Rejected:        "Rejected",
		Unavailable:     "Unavailable",
	}
}

// String returns the human-readable name of the status.
func (s Status) String() string {
	if str, ok := statusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// OK reports whether the operation left the order at (or past) its target.
func (s Status) OK() bool {
	return s == Succeeded || s == AlreadyAtTarget
}

// Outcome is the typed result of one driver operation. ObservedStatus and
// ObservedSubstatus carry the remote state seen closest to the decision,
// for diagnostics when a transition is rejected.
type Outcome struct {
	Status            Status
	Target            remote.Phase
	ObservedStatus    string
	ObservedSubstatus string
	Reason            string
}

func succeededOutcome(target remote.Phase, snap remote.OrderSnapshot) Outcome {
	return Outcome{Status: Succeeded, Target: target,
		ObservedStatus: snap.Status, ObservedSubstatus: snap.Substatus}
}

func alreadyAtTargetOutcome(target remote.Phase, snap remote.OrderSnapshot, reason string) Outcome {
	return Outcome{Status: AlreadyAtTarget, Target: target,
		ObservedStatus: snap.Status, ObservedSubstatus: snap.Substatus, Reason: reason}
}

func rejectedOutcome(target remote.Phase, snap remote.OrderSnapshot, reason string) Outcome {
	return Outcome{Status: Rejected, Target: target,
		ObservedStatus: snap.Status, ObservedSubstatus: snap.Substatus, Reason: reason}
}

func unavailableOutcome(target remote.Phase, reason string) Outcome {
	return Outcome{Status: Unavailable, Target: target, Reason: reason}
}
