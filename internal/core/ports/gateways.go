package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/remote"
)

// GatewayErrorKind classifies remote API failures into the two classes the
// transition driver cares about: a refusal that will not heal on its own,
// and a transient outage worth retrying.
type GatewayErrorKind int

const (
	// GatewayRejected means the remote API refused the request
	// (4xx with an error code). Retrying the identical call is pointless.
	GatewayRejected GatewayErrorKind = iota + 1

	// GatewayUnavailable means the remote API could not answer
	// (timeout, connection failure, 5xx). Retrying may succeed.
	GatewayUnavailable
)

// Canonical rejection codes surfaced by the gateway. Callers branch on
// these instead of matching substrings of remote error text.
const (
	// CodeAlreadyConfirmed is returned for a shipment-confirmation request
	// the remote side reports as already satisfied. The remote API phrases
	// this as a client error; the driver reinterprets it as success.
	CodeAlreadyConfirmed = "ALREADY_CONFIRMED"

	// CodeTransitionNotAllowed is returned when the requested status change
	// skips an intermediate state or moves backward.
	CodeTransitionNotAllowed = "STATUS_TRANSITION_NOT_ALLOWED"

	// CodeUnknown covers rejections the gateway cannot classify further.
	CodeUnknown = "UNKNOWN"
)

// GatewayError is the typed failure returned by remote gateway calls.
type GatewayError struct {
	Kind       GatewayErrorKind
	Code       string
	HTTPStatus int
	Message    string
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case GatewayRejected:
		return fmt.Sprintf("remote rejected request: %s (http %d): %s", e.Code, e.HTTPStatus, e.Message)
	case GatewayUnavailable:
		return fmt.Sprintf("remote unavailable (http %d): %s", e.HTTPStatus, e.Message)
	default:
		return fmt.Sprintf("remote gateway error: %s", e.Message)
	}
}

// AsGatewayError extracts a GatewayError from an error chain.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsRejected reports whether err is a remote refusal.
func IsRejected(err error) bool {
	ge, ok := AsGatewayError(err)
	return ok && ge.Kind == GatewayRejected
}

// IsUnavailable reports whether err is a transient remote outage.
func IsUnavailable(err error) bool {
	ge, ok := AsGatewayError(err)
	return ok && ge.Kind == GatewayUnavailable
}

// RemoteOrderGateway is the typed wrapper over the remote order API.
// The status-mutating calls are only ever issued by the transition driver.
type RemoteOrderGateway interface {
	// GetOrder fetches the current remote view of an order.
	GetOrder(ctx context.Context, orderID int64) (remote.OrderSnapshot, error)

	// ListNewOrders returns orders currently in the initial processing
	// status, for the periodic scan.
	ListNewOrders(ctx context.Context) ([]remote.OrderSnapshot, error)

	// SetStatus requests a status transition. Substatus may be empty where
	// the API does not require one. Failures are *GatewayError.
	SetStatus(ctx context.Context, orderID int64, status, substatus string) error

	// SetStatusDeliveredAt requests the DELIVERED transition carrying an
	// explicit delivery timestamp, which the remote API demands for
	// completions that do not happen on the order's creation day.
	SetStatusDeliveredAt(ctx context.Context, orderID int64, deliveredAt time.Time) error

	// ConfirmShipment confirms the contents of the order's shipment
	// (the boxes call). Failures are *GatewayError; an already confirmed
	// shipment yields Code CodeAlreadyConfirmed.
	ConfirmShipment(ctx context.Context, orderID, shipmentID int64, items []remote.Item) error
}

// BuyerMessenger delivers a text message to the order's buyer through the
// marketplace chat channel.
type BuyerMessenger interface {
	SendToBuyer(ctx context.Context, orderID int64, text string) error
}

// StockCatalog pushes per-SKU free stock counts to the remote catalog.
type StockCatalog interface {
	PushStocks(ctx context.Context, counts map[string]int) error
}
