package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/gin-gonic/gin"
)

type RestaurantActionRequest struct {
	RestaurantID uint `json:"restaurante_id"`
}

type restaurantAction func(ctx context.Context, id, restaurantID uint) (*models.Order, error)

// restaurantActionHandler builds the handler for one restaurant action on an
// order. The body names the acting restaurant unless the token does.
func (h *Handler) restaurantActionHandler(action restaurantAction, done string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "pedidoId")
		if !ok {
			return
		}
		var req RestaurantActionRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err.Error())
			return
		}
		restaurantID, err := actingRestaurant(c, req.RestaurantID)
		if err != nil {
			respondError(c, err)
			return
		}

		order, err := action(c.Request.Context(), id, restaurantID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": done, "pedido": order})
	}
}

func (h *Handler) AcceptOrder() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.Accept, "Order accepted")
}

func (h *Handler) RejectOrder() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.Reject, "Order rejected")
}

func (h *Handler) CancelOrder() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.Cancel, "Order cancelled")
}

func (h *Handler) StartPreparing() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.StartPreparing, "Order is being prepared")
}

func (h *Handler) MarkReady() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.MarkReady, "Order is ready")
}

func (h *Handler) DispatchOrder() gin.HandlerFunc {
	return h.restaurantActionHandler(h.engine.Dispatch, "Order is out for delivery")
}

// restaurantBoard guards a restaurant dashboard list.
func (h *Handler) restaurantBoard(c *gin.Context, list func(ctx context.Context, restaurantID uint) ([]models.Order, error)) {
	restaurantID, ok := pathID(c, "restauranteId")
	if !ok {
		return
	}
	if !canReadRestaurant(c, restaurantID) {
		forbidden(c)
		return
	}
	result, err := list(c.Request.Context(), restaurantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(result), "pedidos": result})
}

// GetPendingOrders lists orders the restaurant can still accept.
func (h *Handler) GetPendingOrders(c *gin.Context) {
	h.restaurantBoard(c, h.query.ForRestaurantPending)
}

func (h *Handler) GetAcceptedOrders(c *gin.Context) {
	h.restaurantBoard(c, h.query.ForRestaurantAccepted)
}

// GetFinalizedOrders lists closed orders; ?limit= caps the result.
func (h *Handler) GetFinalizedOrders(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	h.restaurantBoard(c, func(ctx context.Context, restaurantID uint) ([]models.Order, error) {
		return h.query.ForRestaurantFinalized(ctx, restaurantID, limit)
	})
}
