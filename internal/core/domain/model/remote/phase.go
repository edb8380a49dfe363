package remote

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Raw status and substatus values used by the marketplace order API.
// The lifecycle is strictly forward-only:
//
//	PROCESSING/STARTED → PROCESSING/READY_TO_SHIP → (shipment confirmed) → DELIVERY → DELIVERED
//
// The marketplace may advance an order on its own between two of our
// observations; it never moves one backward, and we never request a
// backward transition.
const (
	StatusProcessing = "PROCESSING"
	StatusDelivery   = "DELIVERY"
	StatusDelivered  = "DELIVERED"

	SubstatusStarted     = "STARTED"
	SubstatusReadyToShip = "READY_TO_SHIP"
)

// Phase is our ordered view of the remote lifecycle. It collapses the
// (status, substatus) pair into a single comparable position so callers can
// ask "is the order at or past X" without string juggling.
//
// Shipment confirmation is deliberately not a Phase: the marketplace models
// it as a side-channel call on the shipment object, not a status value, so
// it is tracked as a derived flag on OrderSnapshot instead.
type Phase int

const (
	// PhaseUnknown represents a status pair outside the lifecycle we drive
	// (cancelled orders, statuses added by the marketplace later).
	PhaseUnknown Phase = iota

	// PhaseStarted is the initial state of a freshly paid order.
	PhaseStarted

	// PhaseReadyToShip means we have accepted the order for handover.
	PhaseReadyToShip

	// PhaseInTransit corresponds to the remote DELIVERY status.
	PhaseInTransit

	// PhaseDelivered is the terminal state. No transitions leave it.
	PhaseDelivered
)

func phaseStrings() map[Phase]string {
	return map[Phase]string{
		PhaseUnknown:     "Unknown",
		PhaseStarted:     "Started",
		PhaseReadyToShip: "ReadyToShip",
		PhaseInTransit:   "InTransit",
		PhaseDelivered:   "Delivered",
	}
}

// String returns the human-readable name of the phase.
// Implements fmt.Stringer; safe on any value, including invalid ones.
func (p Phase) String() string {
	if s, ok := phaseStrings()[p]; ok {
		return s
	}
	return "Unknown"
}

// Validate checks that the phase is one of the lifecycle positions we drive.
// PhaseUnknown and out-of-range values are invalid.
func (p Phase) Validate() error {
	if p < PhaseStarted || p > PhaseDelivered {
		return errs.NewValueIsInvalidErrorWithCause("phase is invalid",
			fmt.Errorf("%d is not a valid phase", p))
	}
	return nil
}

// AtOrPast reports whether the phase has reached target. The lifecycle is
// forward-only, so ordinal comparison is sound.
func (p Phase) AtOrPast(target Phase) bool {
	return p >= target
}

// Prev returns the phase immediately before this one in the lifecycle.
// Used by the transition driver to satisfy missing intermediate steps
// before requesting a transition the remote API would reject.
func (p Phase) Prev() Phase {
	if p <= PhaseStarted {
		return PhaseUnknown
	}
	return p - 1
}

// PhaseOf maps a raw remote (status, substatus) pair onto the ordered
// lifecycle. An empty substatus under PROCESSING is treated as STARTED,
// matching what the marketplace returns for brand-new orders.
func PhaseOf(status, substatus string) Phase {
	switch status {
	case StatusProcessing:
		switch substatus {
		case SubstatusReadyToShip:
			return PhaseReadyToShip
		case SubstatusStarted, "":
			return PhaseStarted
		default:
			return PhaseStarted
		}
	case StatusDelivery:
		return PhaseInTransit
	case StatusDelivered:
		return PhaseDelivered
	default:
		return PhaseUnknown
	}
}

// StatusFor returns the (status, substatus) pair that must be submitted to
// the remote API to request the given phase. The substatus is empty where
// the API does not require one.
func StatusFor(p Phase) (status, substatus string) {
	switch p {
	case PhaseReadyToShip:
		return StatusProcessing, SubstatusReadyToShip
	case PhaseInTransit:
		return StatusDelivery, ""
	case PhaseDelivered:
		return StatusDelivered, ""
	default:
		return "", ""
	}
}
