package handlers

import (
	"net/http"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/gin-gonic/gin"
)

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Reason string             `json:"reason"`
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func (h *Handler) AdminForceOrderStatus(c *gin.Context) {
	id, ok := pathID(c, "pedidoId")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	order, err := h.engine.ForceStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	adminID, _ := middleware.GetUserID(c)
	h.logger.WithField("admin_id", adminID).WithField("order_id", id).
		WithField("reason", req.Reason).Info("Admin override applied")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status force-updated by admin",
		"pedido":  order,
	})
}
