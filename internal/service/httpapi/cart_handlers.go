package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type updateCartItemRequest struct {
	Qty int32 `json:"qty"`
}

func (h *Handler) getCart(c *gin.Context) {
	snapshot, err := h.carts.GetOrCreate(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newCartView(snapshot))
}

func (h *Handler) countCart(c *gin.Context) {
	count, err := h.carts.Count(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, gin.H{"count": count})
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCodedError(c, domain.CodeInvalidArgument, "invalid request body")
		return
	}
	snapshot, err := h.carts.AddLine(c.Request.Context(), callerFrom(c).ID, req.ProductID, req.Qty)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newCartView(snapshot))
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeCodedError(c, domain.CodeInvalidArgument, "invalid request body")
		return
	}
	snapshot, err := h.carts.UpdateLine(c.Request.Context(), callerFrom(c).ID, c.Param("line_id"), req.Qty)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newCartView(snapshot))
}

func (h *Handler) removeCartItem(c *gin.Context) {
	snapshot, err := h.carts.RemoveLine(c.Request.Context(), callerFrom(c).ID, c.Param("line_id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newCartView(snapshot))
}

func (h *Handler) clearCart(c *gin.Context) {
	snapshot, err := h.carts.Clear(c.Request.Context(), callerFrom(c).ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeData(c, http.StatusOK, newCartView(snapshot))
}
