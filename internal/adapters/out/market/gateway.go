package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"fulfillment/internal/core/domain/model/remote"

	"github.com/shopspring/decimal"
)

// Timestamp layouts the partner API uses for order dates.
const (
	creationDateTimeLayout = "02-01-2006 15:04:05"
	dateLayout             = "02-01-2006"
)

// orderDTO mirrors the order object of the partner API. Only the fields the
// system consumes are mapped.
type orderDTO struct {
	ID           int64           `json:"id"`
	Status       string          `json:"status"`
	Substatus    string          `json:"substatus"`
	CreationDate string          `json:"creationDate"`
	BuyerTotal   decimal.Decimal `json:"buyerTotal"`
	Items        []itemDTO       `json:"items"`
	Delivery     deliveryDTO     `json:"delivery"`
	Buyer        buyerDTO        `json:"buyer"`
}

type itemDTO struct {
	ID         int64           `json:"id"`
	ShopSKU    string          `json:"shopSku"`
	OfferName  string          `json:"offerName"`
	Count      int             `json:"count"`
	BuyerPrice decimal.Decimal `json:"buyerPrice"`
}

type deliveryDTO struct {
	Type      string        `json:"type"`
	Shipments []shipmentDTO `json:"shipments"`
}

type shipmentDTO struct {
	ID    int64 `json:"id"`
	Boxes []struct {
		ID int64 `json:"id"`
	} `json:"boxes"`
}

type buyerDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func toSnapshot(dto orderDTO) remote.OrderSnapshot {
	items := make([]remote.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, remote.Item{
			ID:        it.ID,
			ShopSKU:   it.ShopSKU,
			OfferName: it.OfferName,
			Count:     it.Count,
			Price:     it.BuyerPrice,
		})
	}

	var shipment *remote.Shipment
	if len(dto.Delivery.Shipments) > 0 {
		first := dto.Delivery.Shipments[0]
		shipment = &remote.Shipment{
			ID:             first.ID,
			BoxesConfirmed: len(first.Boxes) > 0,
		}
	}

	buyerName := dto.Buyer.FirstName
	if dto.Buyer.LastName != "" {
		if buyerName != "" {
			buyerName += " "
		}
		buyerName += dto.Buyer.LastName
	}

	return remote.OrderSnapshot{
		OrderID:      dto.ID,
		Status:       dto.Status,
		Substatus:    dto.Substatus,
		Items:        items,
		Shipment:     shipment,
		DeliveryType: dto.Delivery.Type,
		BuyerName:    buyerName,
		Total:        dto.BuyerTotal,
		CreatedAt:    parseCreationDate(dto.CreationDate),
	}
}

// parseCreationDate parses the API's creation timestamp. The API sends
// either a full timestamp or a bare date; an unparsable value yields the
// zero time rather than an error, the caller substitutes the current time.
func parseCreationDate(s string) time.Time {
	if t, err := time.Parse(creationDateTimeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// Gateway implements RemoteOrderGateway over the partner API.
type Gateway struct {
	client *Client
}

// NewGateway creates the order gateway.
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// GetOrder fetches the current remote view of an order.
func (g *Gateway) GetOrder(ctx context.Context, orderID int64) (remote.OrderSnapshot, error) {
	var envelope struct {
		Order orderDTO `json:"order"`
	}

	path := fmt.Sprintf("/campaigns/%d/orders/%d", g.client.campaignID, orderID)
	if err := g.client.getJSON(ctx, path, nil, &envelope); err != nil {
		return remote.OrderSnapshot{}, err
	}
	return toSnapshot(envelope.Order), nil
}

// ListNewOrders returns orders sitting at the start of the processing
// lifecycle, one page is enough for the periodic scan.
func (g *Gateway) ListNewOrders(ctx context.Context) ([]remote.OrderSnapshot, error) {
	var envelope struct {
		Orders []orderDTO `json:"orders"`
	}

	query := url.Values{}
	query.Set("status", remote.StatusProcessing)
	query.Set("page", "1")
	query.Set("pageSize", "50")

	path := fmt.Sprintf("/campaigns/%d/orders", g.client.campaignID)
	if err := g.client.getJSON(ctx, path, query, &envelope); err != nil {
		return nil, err
	}

	snapshots := make([]remote.OrderSnapshot, 0, len(envelope.Orders))
	for _, dto := range envelope.Orders {
		snapshots = append(snapshots, toSnapshot(dto))
	}
	return snapshots, nil
}

type statusBody struct {
	Order statusOrder `json:"order"`
}

type statusOrder struct {
	Status    string         `json:"status"`
	Substatus string         `json:"substatus,omitempty"`
	Delivery  *deliveryDates `json:"delivery,omitempty"`
}

type deliveryDates struct {
	Dates struct {
		RealDeliveryDate string `json:"realDeliveryDate"`
	} `json:"dates"`
}

// SetStatus requests a status transition.
func (g *Gateway) SetStatus(ctx context.Context, orderID int64, status, substatus string) error {
	path := fmt.Sprintf("/campaigns/%d/orders/%d/status", g.client.campaignID, orderID)
	body := statusBody{Order: statusOrder{Status: status, Substatus: substatus}}
	return g.client.putJSON(ctx, path, body, nil)
}

// SetStatusDeliveredAt requests the terminal transition carrying the real
// delivery date, required when the completion does not happen on the
// order's creation day.
func (g *Gateway) SetStatusDeliveredAt(ctx context.Context, orderID int64, deliveredAt time.Time) error {
	path := fmt.Sprintf("/campaigns/%d/orders/%d/status", g.client.campaignID, orderID)

	dates := &deliveryDates{}
	dates.Dates.RealDeliveryDate = deliveredAt.Format(dateLayout)
	body := statusBody{Order: statusOrder{Status: remote.StatusDelivered, Delivery: dates}}
	return g.client.putJSON(ctx, path, body, nil)
}

type boxesBody struct {
	Boxes []boxDTO `json:"boxes"`
}

type boxDTO struct {
	FulfilmentID string       `json:"fulfilmentId"`
	Weight       int          `json:"weight"`
	Width        int          `json:"width"`
	Height       int          `json:"height"`
	Depth        int          `json:"depth"`
	Items        []boxItemDTO `json:"items"`
}

type boxItemDTO struct {
	ID    int64 `json:"id"`
	Count int   `json:"count"`
}

// ConfirmShipment confirms the shipment contents. Digital goods have no
// physical parcel, so the box carries the API's minimum legal dimensions
// and a synthetic fulfilment id derived from the order id.
func (g *Gateway) ConfirmShipment(ctx context.Context, orderID, shipmentID int64, items []remote.Item) error {
	boxItems := make([]boxItemDTO, 0, len(items))
	for _, it := range items {
		count := it.Count
		if count <= 0 {
			count = 1
		}
		boxItems = append(boxItems, boxItemDTO{ID: it.ID, Count: count})
	}

	body := boxesBody{Boxes: []boxDTO{{
		FulfilmentID: "digital-" + strconv.FormatInt(orderID, 10),
		Weight:       100,
		Width:        1,
		Height:       1,
		Depth:        1,
		Items:        boxItems,
	}}}

	path := fmt.Sprintf("/campaigns/%d/orders/%d/delivery/shipments/%d/boxes",
		g.client.campaignID, orderID, shipmentID)
	return g.client.putJSON(ctx, path, body, nil)
}
