package remote

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryTypeDigital marks orders with no physical shipment object.
// For these the marketplace lets DELIVERED be requested without passing
// through DELIVERY first.
const DeliveryTypeDigital = "DIGITAL"

// Item is one order line as reported by the marketplace.
type Item struct {
	ID        int64
	ShopSKU   string
	OfferName string
	Count     int
	Price     decimal.Decimal
}

// Shipment is the parcel object the marketplace attaches to an order once
// it reaches READY_TO_SHIP. BoxesConfirmed reflects whether the shipment
// contents were already confirmed on the remote side.
type Shipment struct {
	ID             int64
	BoxesConfirmed bool
}

// OrderSnapshot is a read-only view of a remote order at one observation.
// Snapshots go stale the moment another party advances the order, so the
// transition driver re-fetches one before every mutating call.
type OrderSnapshot struct {
	OrderID      int64
	Status       string
	Substatus    string
	Items        []Item
	Shipment     *Shipment
	DeliveryType string
	BuyerName    string
	Total        decimal.Decimal
	CreatedAt    time.Time
}

// Phase returns the snapshot's position in the ordered lifecycle.
func (s OrderSnapshot) Phase() Phase {
	return PhaseOf(s.Status, s.Substatus)
}

// ShipmentConfirmed reports whether the order has a shipment whose contents
// were confirmed. This is the derived flag standing in for the
// "shipment confirmed" step between READY_TO_SHIP and DELIVERY.
func (s OrderSnapshot) ShipmentConfirmed() bool {
	return s.Shipment != nil && s.Shipment.BoxesConfirmed
}

// FullyDigital reports whether the order carries no physical shipment
// object, in which case the shipment-confirmation and DELIVERY steps may be
// skipped.
func (s OrderSnapshot) FullyDigital() bool {
	return s.DeliveryType == DeliveryTypeDigital
}

// FirstSKU returns the product key of the first line item, or the empty
// string for an order without items. Allocation keys off the first item.
func (s OrderSnapshot) FirstSKU() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].ShopSKU
}

// FirstOfferName returns the display name of the first line item.
func (s OrderSnapshot) FirstOfferName() string {
	if len(s.Items) == 0 {
		return ""
	}
	return s.Items[0].OfferName
}
