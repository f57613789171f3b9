package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
)

type placeOrderRequest struct {
	CustomerName     string     `json:"customer_name"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	PaymentMethod    string     `json:"payment_method"`
	ShippingMethodID int64      `json:"shipping_method_id,omitempty"`
	CouponID         string     `json:"coupon_id,omitempty"`
	Note             string     `json:"note,omitempty"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
}

func (r placeOrderRequest) input() order.PlaceOrderInput {
	return order.PlaceOrderInput{
		Customer:         domain.Customer{Name: r.CustomerName, Phone: r.Phone, Address: r.Address},
		PaymentMethod:    r.PaymentMethod,
		ShippingMethodID: r.ShippingMethodID,
		CouponID:         r.CouponID,
		Note:             r.Note,
		ExpectedDelivery: r.ExpectedDelivery,
	}
}

type updateStatusRequest struct {
	Status           string     `json:"status"`
	ExpectedDelivery *time.Time `json:"expected_delivery,omitempty"`
}

func (h *Handler) placeOrder(c *gin.Context) {
	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCodedError(c, domain.CodeInvalidArgument, "invalid request body")
		return
	}
	caller := callerFrom(c)

	h.withIdempotency(c, "place_order", caller, req, func() (int, any) {
		placed, err := h.orders.PlaceOrder(c.Request.Context(), caller, req.input())
		if err != nil {
			status, body := errorResponse(h.logger, err)
			return status, body
		}
		return http.StatusCreated, gin.H{"data": newOrderSummaryView(placed)}
	})
}

func (h *Handler) getOrder(c *gin.Context) {
	o, err := h.orders.GetOrder(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newOrderDetailView(o))
}

func (h *Handler) listMyOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	page, err := h.orders.ListOrders(c.Request.Context(), callerFrom(c), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newOrderPageView(page))
}

func (h *Handler) listAllOrders(c *gin.Context) {
	filter, err := parseOrderFilter(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	page, err := h.orders.ListAllOrders(c.Request.Context(), callerFrom(c), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newOrderPageView(page))
}

func (h *Handler) orderTimeline(c *gin.Context) {
	events, err := h.orders.Timeline(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newTimelineView(events))
}

func (h *Handler) cancelOrder(c *gin.Context) {
	o, err := h.orders.Cancel(c.Request.Context(), callerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newOrderSummaryView(o))
}

func (h *Handler) updateOrderStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCodedError(c, domain.CodeInvalidArgument, "invalid request body")
		return
	}
	o, err := h.orders.AdminUpdateStatus(c.Request.Context(), callerFrom(c), c.Param("id"), req.Status, req.ExpectedDelivery)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newOrderSummaryView(o))
}

// parseOrderFilter читает status, from, to (RFC 3339), q, sort, order, page, page_size.
func parseOrderFilter(c *gin.Context) (domain.OrderFilter, error) {
	filter := domain.OrderFilter{
		Search: c.Query("q"),
		SortBy: domain.OrderSortField(strings.ToLower(c.Query("sort"))),
	}

	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}

	switch strings.ToLower(c.Query("order")) {
	case "", "desc":
	case "asc":
		filter.Ascending = true
	default:
		return filter, domain.ErrPageInvalid
	}

	var err error
	if filter.From, err = queryTime(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(c, "to"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "page_size"); err != nil {
		return filter, err
	}
	return filter, nil
}

func queryTime(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.ErrPageInvalid
	}
	return t, nil
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, domain.ErrPageInvalid
	}
	return v, nil
}

// mustJSON кодирует тело ответа; структуры ответов всегда сериализуемы.
func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte(`{"error":{"code":"internal","message":"internal error"}}`)
	}
	return data
}
