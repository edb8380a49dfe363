package transition

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/core/ports"

	"github.com/cenkalti/backoff/v4"
)

// Driver advances a remote order through its forward-only lifecycle. It is
// the only component allowed to issue status-mutating remote calls.
//
// The core correctness rule: re-fetch the remote state before every mutating
// call. If the order is already at or past the requested target, return
// AlreadyAtTarget without mutating anything. The remote side auto-advances
// orders between our observations, and racing it would get the request
// rejected. If the order is more than one step behind, the missing
// intermediate steps are satisfied first; the remote API rejects transitions
// that skip a state.
type Driver struct {
	gateway ports.RemoteOrderGateway
	retry   RetryPolicy
	logger  *slog.Logger

	// now is injectable for delivery-timestamp tests
	now func() time.Time
}

// NewDriver creates a transition driver over the given gateway.
// The retry policy bounds how long a transient remote outage is tolerated.
func NewDriver(gateway ports.RemoteOrderGateway, retry RetryPolicy, logger *slog.Logger) *Driver {
	return &Driver{
		gateway: gateway,
		retry:   retry,
		logger:  logger.With("component", "transition_driver"),
		now:     time.Now,
	}
}

// EnsureReadyToShip drives the order to PROCESSING/READY_TO_SHIP.
func (d *Driver) EnsureReadyToShip(ctx context.Context, orderID int64) Outcome {
	snap, err := d.fetch(ctx, orderID)
	if err != nil {
		return d.fetchFailure(remote.PhaseReadyToShip, err)
	}
	return d.ensureReadyToShipFrom(ctx, orderID, snap)
}

func (d *Driver) ensureReadyToShipFrom(ctx context.Context, orderID int64, snap remote.OrderSnapshot) Outcome {
	if snap.Phase().AtOrPast(remote.PhaseReadyToShip) {
		return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "")
	}
	return d.requestStatus(ctx, orderID, snap, remote.PhaseReadyToShip)
}

// ConfirmShipment confirms the contents of the order's shipment. The remote
// side reports a repeated confirmation as a client error; that is
// reinterpreted as AlreadyAtTarget, because the state we wanted already
// holds. For fully digital goods with no shipment object there is nothing
// to confirm and the call reports AlreadyAtTarget as well.
func (d *Driver) ConfirmShipment(ctx context.Context, orderID int64) Outcome {
	snap, err := d.fetch(ctx, orderID)
	if err != nil {
		return d.fetchFailure(remote.PhaseReadyToShip, err)
	}

	if snap.ShipmentConfirmed() {
		return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "shipment already confirmed")
	}
	if snap.Phase().AtOrPast(remote.PhaseInTransit) {
		return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "order already past handover")
	}

	if !snap.Phase().AtOrPast(remote.PhaseReadyToShip) {
		if out := d.ensureReadyToShipFrom(ctx, orderID, snap); !out.Status.OK() {
			return out
		}
		// The shipment object only materializes after READY_TO_SHIP.
		snap, err = d.fetch(ctx, orderID)
		if err != nil {
			return d.fetchFailure(remote.PhaseReadyToShip, err)
		}
		if snap.ShipmentConfirmed() {
			return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "shipment already confirmed")
		}
	}

	if snap.Shipment == nil {
		if snap.FullyDigital() {
			return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "fully digital delivery, no shipment to confirm")
		}
		return rejectedOutcome(remote.PhaseReadyToShip, snap, "order has no shipment to confirm")
	}

	shipmentID := snap.Shipment.ID
	items := snap.Items
	err = d.mutate(ctx, func() error {
		return d.gateway.ConfirmShipment(ctx, orderID, shipmentID, items)
	})
	if err == nil {
		d.logger.InfoContext(ctx, "Shipment confirmed", "order_id", orderID, "shipment_id", shipmentID)
		return succeededOutcome(remote.PhaseReadyToShip, snap)
	}

	ge, ok := ports.AsGatewayError(err)
	if ok && ge.Kind == ports.GatewayRejected {
		if ge.Code == ports.CodeAlreadyConfirmed {
			return alreadyAtTargetOutcome(remote.PhaseReadyToShip, snap, "shipment already confirmed")
		}
		// The rejection may be a race with a confirmation that landed
		// between our fetch and the call. Re-fetch once before surfacing.
		recheck, ferr := d.fetch(ctx, orderID)
		if ferr == nil && (recheck.ShipmentConfirmed() || recheck.Phase().AtOrPast(remote.PhaseInTransit)) {
			return alreadyAtTargetOutcome(remote.PhaseReadyToShip, recheck, "shipment confirmed concurrently")
		}
		if ferr == nil {
			snap = recheck
		}
		d.logger.WarnContext(ctx, "Shipment confirmation rejected",
			"order_id", orderID, "code", ge.Code, "observed", snap.Status+"/"+snap.Substatus)
		return rejectedOutcome(remote.PhaseReadyToShip, snap, ge.Error())
	}
	return unavailableOutcome(remote.PhaseReadyToShip, err.Error())
}

// AdvanceToInTransit drives the order to DELIVERY. It requires READY_TO_SHIP
// and a confirmed shipment; missing intermediate steps are attempted first.
// Fully digital goods carry no shipment object and skip this step entirely.
func (d *Driver) AdvanceToInTransit(ctx context.Context, orderID int64) Outcome {
	snap, err := d.fetch(ctx, orderID)
	if err != nil {
		return d.fetchFailure(remote.PhaseInTransit, err)
	}

	if snap.Phase().AtOrPast(remote.PhaseInTransit) {
		return alreadyAtTargetOutcome(remote.PhaseInTransit, snap, "")
	}
	if snap.FullyDigital() {
		return alreadyAtTargetOutcome(remote.PhaseInTransit, snap, "fully digital delivery, transit step skipped")
	}

	if !snap.ShipmentConfirmed() {
		if out := d.ConfirmShipment(ctx, orderID); !out.Status.OK() {
			return Outcome{
				Status:            out.Status,
				Target:            remote.PhaseInTransit,
				ObservedStatus:    out.ObservedStatus,
				ObservedSubstatus: out.ObservedSubstatus,
				Reason:            out.Reason,
			}
		}
		// Confirmation often auto-advances the order on the remote side.
		snap, err = d.fetch(ctx, orderID)
		if err != nil {
			return d.fetchFailure(remote.PhaseInTransit, err)
		}
		if snap.Phase().AtOrPast(remote.PhaseInTransit) {
			return alreadyAtTargetOutcome(remote.PhaseInTransit, snap, "remote auto-advanced after confirmation")
		}
	}

	return d.requestStatus(ctx, orderID, snap, remote.PhaseInTransit)
}

// AdvanceToDelivered drives the order to the terminal DELIVERED state. It
// requires DELIVERY first for physical deliveries; fully digital orders may
// be completed straight from processing. A delivery timestamp is attached
// when the completion does not happen on the order's creation day.
func (d *Driver) AdvanceToDelivered(ctx context.Context, orderID int64) Outcome {
	snap, err := d.fetch(ctx, orderID)
	if err != nil {
		return d.fetchFailure(remote.PhaseDelivered, err)
	}

	if snap.Phase().AtOrPast(remote.PhaseDelivered) {
		return alreadyAtTargetOutcome(remote.PhaseDelivered, snap, "")
	}

	if !snap.FullyDigital() && !snap.Phase().AtOrPast(remote.PhaseInTransit) {
		if out := d.AdvanceToInTransit(ctx, orderID); !out.Status.OK() {
			return Outcome{
				Status:            out.Status,
				Target:            remote.PhaseDelivered,
				ObservedStatus:    out.ObservedStatus,
				ObservedSubstatus: out.ObservedSubstatus,
				Reason:            out.Reason,
			}
		}
		snap, err = d.fetch(ctx, orderID)
		if err != nil {
			return d.fetchFailure(remote.PhaseDelivered, err)
		}
		if snap.Phase().AtOrPast(remote.PhaseDelivered) {
			return alreadyAtTargetOutcome(remote.PhaseDelivered, snap, "")
		}
	}

	return d.requestStatus(ctx, orderID, snap, remote.PhaseDelivered)
}

// requestStatus issues a single status transition toward target, with
// rejection reconciliation: when the remote API refuses, the state is
// re-fetched once, and a target already reached through remote auto-advance
// is reported as AlreadyAtTarget instead of an error.
func (d *Driver) requestStatus(ctx context.Context, orderID int64, snap remote.OrderSnapshot, target remote.Phase) Outcome {
	status, substatus := remote.StatusFor(target)

	err := d.mutate(ctx, func() error {
		if target == remote.PhaseDelivered && d.needsDeliveryTimestamp(snap) {
			return d.gateway.SetStatusDeliveredAt(ctx, orderID, d.now())
		}
		return d.gateway.SetStatus(ctx, orderID, status, substatus)
	})
	if err == nil {
		d.logger.InfoContext(ctx, "Order transitioned",
			"order_id", orderID, "target", target.String(), "from", snap.Status+"/"+snap.Substatus)
		return succeededOutcome(target, snap)
	}

	ge, ok := ports.AsGatewayError(err)
	if ok && ge.Kind == ports.GatewayRejected {
		recheck, ferr := d.fetch(ctx, orderID)
		if ferr == nil && recheck.Phase().AtOrPast(target) {
			return alreadyAtTargetOutcome(target, recheck, "remote advanced concurrently")
		}
		if ferr == nil {
			snap = recheck
		}
		d.logger.WarnContext(ctx, "Transition rejected",
			"order_id", orderID, "target", target.String(),
			"code", ge.Code, "observed", snap.Status+"/"+snap.Substatus)
		return rejectedOutcome(target, snap, ge.Error())
	}
	return unavailableOutcome(target, err.Error())
}

// needsDeliveryTimestamp reports whether the DELIVERED request must carry an
// explicit delivery date: the remote API demands one when the completion
// does not happen on the order's creation day.
func (d *Driver) needsDeliveryTimestamp(snap remote.OrderSnapshot) bool {
	if snap.CreatedAt.IsZero() {
		return false
	}
	cy, cm, cd := snap.CreatedAt.Date()
	ny, nm, nd := d.now().Date()
	return cy != ny || cm != nm || cd != nd
}

// fetch reads the current remote state, retrying transient outages per the
// policy. Rejections (an unknown order, a revoked token) are permanent and
// surface immediately.
func (d *Driver) fetch(ctx context.Context, orderID int64) (remote.OrderSnapshot, error) {
	var snap remote.OrderSnapshot
	err := d.retry.Run(ctx, func() error {
		s, err := d.gateway.GetOrder(ctx, orderID)
		if err != nil {
			if ports.IsUnavailable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		snap = s
		return nil
	})
	return snap, err
}

// mutate runs a status-mutating call, retrying only transient outages.
func (d *Driver) mutate(ctx context.Context, call func() error) error {
	return d.retry.Run(ctx, func() error {
		err := call()
		if err != nil && !ports.IsUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	})
}

// fetchFailure maps a failed state read onto an outcome. A rejected read
// means the order itself is the problem; anything else is an outage.
func (d *Driver) fetchFailure(target remote.Phase, err error) Outcome {
	if ports.IsRejected(err) {
		return Outcome{Status: Rejected, Target: target, Reason: err.Error()}
	}
	return unavailableOutcome(target, err.Error())
}
