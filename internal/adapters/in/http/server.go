// Package http implements the inbound HTTP API. Handlers translate between
// the wire and the application's commands and queries; no business rules
// live here.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fulfillment/internal/core/application/transition"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// Server implements HTTP handlers over the application use cases.
type Server struct {
	// Command handlers
	fulfillOrderHandler    commands.FulfillOrderCommandHandler
	inTransitHandler       commands.AdvanceInTransitCommandHandler
	deliveredHandler       commands.AdvanceDeliveredCommandHandler
	appendAccountsHandler  commands.AppendAccountsCommandHandler
	allocateAccountHandler commands.AllocateAccountCommandHandler
	pushStockHandler       commands.PushStockCommandHandler

	// Query handlers
	listOrdersHandler queries.ListOrdersQueryHandler
	getOrderHandler   queries.GetOrderQueryHandler
	freeStockHandler  queries.FreeStockQueryHandler
}

// NewServer creates the HTTP server over the given command and query handlers.
func NewServer(
	fulfillOrderHandler commands.FulfillOrderCommandHandler,
	inTransitHandler commands.AdvanceInTransitCommandHandler,
	deliveredHandler commands.AdvanceDeliveredCommandHandler,
	appendAccountsHandler commands.AppendAccountsCommandHandler,
	allocateAccountHandler commands.AllocateAccountCommandHandler,
	pushStockHandler commands.PushStockCommandHandler,
	listOrdersHandler queries.ListOrdersQueryHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	freeStockHandler queries.FreeStockQueryHandler,
) *Server {
	return &Server{
		fulfillOrderHandler:    fulfillOrderHandler,
		inTransitHandler:       inTransitHandler,
		deliveredHandler:       deliveredHandler,
		appendAccountsHandler:  appendAccountsHandler,
		allocateAccountHandler: allocateAccountHandler,
		pushStockHandler:       pushStockHandler,
		listOrdersHandler:      listOrdersHandler,
		getOrderHandler:        getOrderHandler,
		freeStockHandler:       freeStockHandler,
	}
}

// RegisterRoutes attaches all API routes to the Echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:orderID", s.GetOrder)
	api.POST("/orders/:orderID/fulfill", s.FulfillOrder)
	api.POST("/orders/:orderID/ship", s.AdvanceInTransit)
	api.POST("/orders/:orderID/deliver", s.AdvanceDelivered)
	api.POST("/accounts", s.AppendAccounts)
	api.POST("/allocations", s.AllocateAccount)
	api.GET("/stock", s.FreeStock)
	api.POST("/stock/sync", s.PushStock)
}

// ErrorResponse is the uniform error body of the API.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// TransitionResponse reports a remote status transition attempt.
type TransitionResponse struct {
	OrderID         int64  `json:"orderId"`
	Outcome         string `json:"outcome"`
	Target          string `json:"target,omitempty"`
	ObservedStatus  string `json:"observedStatus,omitempty"`
	ObservedSubstat string `json:"observedSubstatus,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

func toTransitionResponse(orderID int64, outcome transition.Outcome) TransitionResponse {
	return TransitionResponse{
		OrderID:         orderID,
		Outcome:         outcome.Status.String(),
		Target:          outcome.Target.String(),
		ObservedStatus:  outcome.ObservedStatus,
		ObservedSubstat: outcome.ObservedSubstatus,
		Reason:          outcome.Reason,
	}
}

// FulfillmentResponse reports a completed fulfillment attempt.
type FulfillmentResponse struct {
	OrderID           int64              `json:"orderId"`
	Product           string             `json:"product,omitempty"`
	AccountLogin      string             `json:"accountLogin,omitempty"`
	Stage             string             `json:"stage"`
	MessagingDegraded bool               `json:"messagingDegraded"`
	Transition        TransitionResponse `json:"transition"`
	AttemptID         string             `json:"attemptId"`
}

// FulfillOrder handles POST /api/v1/orders/:orderID/fulfill.
func (s *Server) FulfillOrder(ctx echo.Context) error {
	orderID, err := pathOrderID(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewFulfillOrderCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := s.fulfillOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, FulfillmentResponse{
		OrderID:           result.OrderID,
		Product:           result.Product,
		AccountLogin:      result.AccountLogin,
		Stage:             result.Stage.String(),
		MessagingDegraded: result.MessagingDegraded,
		Transition:        toTransitionResponse(result.OrderID, result.Transition),
		AttemptID:         result.AttemptID,
	})
}

// AdvanceInTransit handles POST /api/v1/orders/:orderID/ship.
func (s *Server) AdvanceInTransit(ctx echo.Context) error {
	orderID, err := pathOrderID(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewAdvanceInTransitCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	outcome, err := s.inTransitHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toTransitionResponse(orderID, outcome))
}

// AdvanceDelivered handles POST /api/v1/orders/:orderID/deliver.
func (s *Server) AdvanceDelivered(ctx echo.Context) error {
	orderID, err := pathOrderID(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	cmd, err := commands.NewAdvanceDeliveredCommand(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	outcome, err := s.deliveredHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toTransitionResponse(orderID, outcome))
}

// AppendAccountsRequest is the bulk import payload.
type AppendAccountsRequest struct {
	Text           string `json:"text"`
	ProductBinding string `json:"productBinding"`
}

// AppendAccountsResponse reports the fate of each imported line.
type AppendAccountsResponse struct {
	Added      []string `json:"added"`
	Duplicates []string `json:"duplicates"`
	Malformed  []string `json:"malformed"`
}

// AppendAccounts handles POST /api/v1/accounts.
func (s *Server) AppendAccounts(ctx echo.Context) error {
	var req AppendAccountsRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewAppendAccountsCommand(req.Text, req.ProductBinding)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	result, err := s.appendAccountsHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		if len(result.Malformed) > 0 {
			return ctx.JSON(http.StatusUnprocessableEntity, AppendAccountsResponse{
				Added:      []string{},
				Duplicates: []string{},
				Malformed:  result.Malformed,
			})
		}
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, AppendAccountsResponse{
		Added:      emptyIfNil(result.Added),
		Duplicates: emptyIfNil(result.Duplicates),
		Malformed:  emptyIfNil(result.Malformed),
	})
}

// AllocateAccountRequest asks for a dry-run allocation.
type AllocateAccountRequest struct {
	ProductKey string `json:"productKey"`
}

// AllocateAccountResponse is the account the allocator would hand out.
type AllocateAccountResponse struct {
	Login          string `json:"login"`
	Secret         string `json:"secret"`
	SecondFactor   string `json:"secondFactor,omitempty"`
	ProductBinding string `json:"productBinding,omitempty"`
}

// AllocateAccount handles POST /api/v1/allocations.
func (s *Server) AllocateAccount(ctx echo.Context) error {
	var req AllocateAccountRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewAllocateAccountCommand(req.ProductKey)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	preview, err := s.allocateAccountHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, AllocateAccountResponse{
		Login:          preview.Login,
		Secret:         preview.Secret,
		SecondFactor:   preview.SecondFactor,
		ProductBinding: preview.ProductBinding,
	})
}

// OrderResponse is one ledger entry on the wire.
type OrderResponse struct {
	OrderID         int64           `json:"orderId"`
	RemoteStatus    string          `json:"remoteStatus"`
	RemoteSubstatus string          `json:"remoteSubstatus,omitempty"`
	Stage           string          `json:"stage"`
	Product         string          `json:"product,omitempty"`
	BuyerLabel      string          `json:"buyerLabel,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	CreatedAt       time.Time       `json:"createdAt"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	AccountLogin    string          `json:"accountLogin,omitempty"`
}

// ListOrdersResponse is one page of the ledger.
type ListOrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
}

func toOrderResponse(view queries.OrderView) OrderResponse {
	return OrderResponse{
		OrderID:         view.OrderID,
		RemoteStatus:    view.RemoteStatus,
		RemoteSubstatus: view.RemoteSubstatus,
		Stage:           view.Stage,
		Product:         view.Product,
		BuyerLabel:      view.BuyerLabel,
		TotalAmount:     view.TotalAmount,
		CreatedAt:       view.CreatedAt,
		DeliveredAt:     view.DeliveredAt,
		AccountLogin:    view.AccountLogin,
	}
}

// ListOrders handles GET /api/v1/orders.
func (s *Server) ListOrders(ctx echo.Context) error {
	limit := queryInt(ctx, "limit", 0)
	offset := queryInt(ctx, "offset", 0)

	query, err := queries.NewListOrdersQuery(limit, offset)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	page, err := s.listOrdersHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	orders := make([]OrderResponse, len(page.Orders))
	for i, view := range page.Orders {
		orders[i] = toOrderResponse(view)
	}

	return ctx.JSON(http.StatusOK, ListOrdersResponse{Orders: orders, Total: page.Total})
}

// GetOrder handles GET /api/v1/orders/:orderID.
func (s *Server) GetOrder(ctx echo.Context) error {
	orderID, err := pathOrderID(ctx)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return badRequest(ctx, err.Error())
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrderResponse(view))
}

// StockResponse is the free inventory report.
type StockResponse struct {
	Stock []StockBucket `json:"stock"`
}

// StockBucket is one product's free count.
type StockBucket struct {
	ProductKey string `json:"productKey"`
	Free       int    `json:"free"`
}

// FreeStock handles GET /api/v1/stock.
func (s *Server) FreeStock(ctx echo.Context) error {
	buckets, err := s.freeStockHandler.Handle(ctx.Request().Context(), queries.NewFreeStockQuery())
	if err != nil {
		return writeError(ctx, err)
	}

	stock := make([]StockBucket, len(buckets))
	for i, bucket := range buckets {
		stock[i] = StockBucket{ProductKey: bucket.ProductKey, Free: bucket.Free}
	}

	return ctx.JSON(http.StatusOK, StockResponse{Stock: stock})
}

// PushStock handles POST /api/v1/stock/sync.
func (s *Server) PushStock(ctx echo.Context) error {
	cmd, err := commands.NewPushStockCommand()
	if err != nil {
		return writeError(ctx, err)
	}

	counts, err := s.pushStockHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{"pushed": len(counts), "counts": counts})
}

func pathOrderID(ctx echo.Context) (int64, error) {
	raw := ctx.Param("orderID")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("orderID must be an integer")
	}
	return orderID, nil
}

func queryInt(ctx echo.Context, name string, fallback int) int {
	raw := ctx.QueryParam(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// writeError maps application failures to HTTP statuses.
func writeError(ctx echo.Context, err error) error {
	switch {
	case errors.Is(err, commands.ErrAlreadyProcessed):
		return ctx.JSON(http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, commands.ErrAllocationExhausted):
		return ctx.JSON(http.StatusConflict, ErrorResponse{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	case errors.Is(err, commands.ErrEmptyOrder):
		return ctx.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrObjectNotFound):
		return ctx.JSON(http.StatusNotFound, ErrorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	default:
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: err.Error(),
		})
	}
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
