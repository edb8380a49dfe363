package market_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/market"
	"fulfillment/internal/core/domain/model/remote"
	"fulfillment/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest captures what the adapter sent for assertions after the
// handler returns.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   []byte
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*market.Client, *recordedRequest) {
	t.Helper()

	recorded := &recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.Method = r.Method
		recorded.Path = r.URL.Path
		recorded.Query = r.URL.RawQuery
		recorded.APIKey = r.Header.Get("Api-Key")
		recorded.Body, _ = io.ReadAll(r.Body)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	return market.NewClient(server.URL, "test-key", 42, 77, time.Second), recorded
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

const orderJSON = `{
  "order": {
    "id": 1001,
    "status": "PROCESSING",
    "substatus": "READY_TO_SHIP",
    "creationDate": "15-01-2026 12:30:45",
    "buyerTotal": 499,
    "items": [
      {"id": 1, "shopSku": "sku-100", "offerName": "Game Key", "count": 2, "buyerPrice": 249.5}
    ],
    "delivery": {
      "type": "DIGITAL",
      "shipments": [{"id": 7, "boxes": [{"id": 3}]}]
    },
    "buyer": {"firstName": "Ivan", "lastName": "Petrov"}
  }
}`

func TestGateway_GetOrder(t *testing.T) {
	t.Run("should fetch and map the order", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(orderJSON))
		gateway := market.NewGateway(client)

		snap, err := gateway.GetOrder(t.Context(), 1001)

		require.NoError(t, err)
		assert.Equal(t, http.MethodGet, recorded.Method)
		assert.Equal(t, "/campaigns/42/orders/1001", recorded.Path)
		assert.Equal(t, "test-key", recorded.APIKey)

		assert.Equal(t, int64(1001), snap.OrderID)
		assert.Equal(t, "PROCESSING", snap.Status)
		assert.Equal(t, "READY_TO_SHIP", snap.Substatus)
		assert.Equal(t, "DIGITAL", snap.DeliveryType)
		assert.Equal(t, "Ivan Petrov", snap.BuyerName)
		assert.Equal(t, time.Date(2026, 1, 15, 12, 30, 45, 0, time.UTC), snap.CreatedAt)
		require.Len(t, snap.Items, 1)
		assert.Equal(t, "sku-100", snap.Items[0].ShopSKU)
		assert.Equal(t, 2, snap.Items[0].Count)
		require.NotNil(t, snap.Shipment)
		assert.Equal(t, int64(7), snap.Shipment.ID)
		assert.True(t, snap.Shipment.BoxesConfirmed, "A shipment with boxes should count as confirmed")
	})

	t.Run("should map an order without shipments", func(t *testing.T) {
		client, _ := newTestClient(t, respondJSON(
			`{"order": {"id": 1001, "status": "PROCESSING", "substatus": "STARTED",
			  "creationDate": "15-01-2026", "delivery": {"type": "DIGITAL"}}}`))
		gateway := market.NewGateway(client)

		snap, err := gateway.GetOrder(t.Context(), 1001)

		require.NoError(t, err)
		assert.Nil(t, snap.Shipment)
		assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), snap.CreatedAt,
			"A bare date should parse with the date-only layout")
	})

	t.Run("should classify a 4xx as rejected with the envelope code", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors": [{"code": "STATUS_TRANSITION_NOT_ALLOWED", "message": "nope"}]}`))
		})
		gateway := market.NewGateway(client)

		_, err := gateway.GetOrder(t.Context(), 1001)

		require.Error(t, err)
		ge, ok := ports.AsGatewayError(err)
		require.True(t, ok)
		assert.Equal(t, ports.GatewayRejected, ge.Kind)
		assert.Equal(t, ports.CodeTransitionNotAllowed, ge.Code)
		assert.Equal(t, http.StatusBadRequest, ge.HTTPStatus)
	})

	t.Run("should classify a 5xx as unavailable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		gateway := market.NewGateway(client)

		_, err := gateway.GetOrder(t.Context(), 1001)

		assert.True(t, ports.IsUnavailable(err))
	})

	t.Run("should classify a 429 as unavailable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
		gateway := market.NewGateway(client)

		_, err := gateway.GetOrder(t.Context(), 1001)

		assert.True(t, ports.IsUnavailable(err))
	})

	t.Run("should classify a connection failure as unavailable", func(t *testing.T) {
		client := market.NewClient("http://127.0.0.1:1", "test-key", 42, 77, 100*time.Millisecond)
		gateway := market.NewGateway(client)

		_, err := gateway.GetOrder(t.Context(), 1001)

		assert.True(t, ports.IsUnavailable(err))
	})
}

func TestGateway_ListNewOrders(t *testing.T) {
	t.Run("should query the processing page", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(`{"orders": [{"id": 1001, "status": "PROCESSING"}]}`))
		gateway := market.NewGateway(client)

		snapshots, err := gateway.ListNewOrders(t.Context())

		require.NoError(t, err)
		require.Len(t, snapshots, 1)
		assert.Equal(t, "/campaigns/42/orders", recorded.Path)
		assert.Contains(t, recorded.Query, "status=PROCESSING")
	})
}

func TestGateway_SetStatus(t *testing.T) {
	t.Run("should send the status envelope", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(`{}`))
		gateway := market.NewGateway(client)

		err := gateway.SetStatus(t.Context(), 1001, "PROCESSING", "READY_TO_SHIP")

		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, recorded.Method)
		assert.Equal(t, "/campaigns/42/orders/1001/status", recorded.Path)

		var body map[string]map[string]any
		require.NoError(t, json.Unmarshal(recorded.Body, &body))
		assert.Equal(t, "PROCESSING", body["order"]["status"])
		assert.Equal(t, "READY_TO_SHIP", body["order"]["substatus"])
	})

	t.Run("should omit an empty substatus", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(`{}`))
		gateway := market.NewGateway(client)

		err := gateway.SetStatus(t.Context(), 1001, "DELIVERY", "")

		require.NoError(t, err)
		assert.NotContains(t, string(recorded.Body), "substatus")
	})
}

func TestGateway_SetStatusDeliveredAt(t *testing.T) {
	t.Run("should carry the real delivery date", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(`{}`))
		gateway := market.NewGateway(client)
		deliveredAt := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

		err := gateway.SetStatusDeliveredAt(t.Context(), 1001, deliveredAt)

		require.NoError(t, err)
		assert.Contains(t, string(recorded.Body), `"status":"DELIVERED"`)
		assert.Contains(t, string(recorded.Body), `"realDeliveryDate":"01-02-2026"`)
	})
}

func TestGateway_ConfirmShipment(t *testing.T) {
	t.Run("should send one synthetic box with the order items", func(t *testing.T) {
		client, recorded := newTestClient(t, respondJSON(`{}`))
		gateway := market.NewGateway(client)
		items := []remote.Item{
			{ID: 1, ShopSKU: "sku-100", Count: 2},
			{ID: 2, ShopSKU: "sku-200", Count: 0},
		}

		err := gateway.ConfirmShipment(t.Context(), 1001, 7, items)

		require.NoError(t, err)
		assert.Equal(t, "/campaigns/42/orders/1001/delivery/shipments/7/boxes", recorded.Path)

		var body struct {
			Boxes []struct {
				FulfilmentID string `json:"fulfilmentId"`
				Weight       int    `json:"weight"`
				Items        []struct {
					ID    int64 `json:"id"`
					Count int   `json:"count"`
				} `json:"items"`
			} `json:"boxes"`
		}
		require.NoError(t, json.Unmarshal(recorded.Body, &body))
		require.Len(t, body.Boxes, 1)
		assert.Equal(t, "digital-1001", body.Boxes[0].FulfilmentID)
		assert.Equal(t, 100, body.Boxes[0].Weight)
		require.Len(t, body.Boxes[0].Items, 2)
		assert.Equal(t, 1, body.Boxes[0].Items[1].Count, "A non-positive item count should be clamped to one")
	})
}
