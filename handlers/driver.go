package handlers

import (
	"net/http"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/gin-gonic/gin"
)

type FinalizeOrderRequest struct {
	ConfirmationCode string `json:"codigo_confirmacao" binding:"required"`
}

// FinalizeOrder marks the order delivered once the courier or the customer
// presents the confirmation code.
func (h *Handler) FinalizeOrder(c *gin.Context) {
	id, ok := pathID(c, "pedidoId")
	if !ok {
		return
	}
	var req FinalizeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	actor := models.ActorCourier
	var customerID uint
	if role, authed := middleware.GetRole(c); authed {
		switch role {
		case models.RoleCourier:
		case models.RoleCustomer:
			actor = models.ActorCustomer
			customerID, _ = middleware.GetUserID(c)
		default:
			forbidden(c)
			return
		}
	}

	order, err := h.engine.Finalize(c.Request.Context(), id, req.ConfirmationCode, actor, customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order delivered", "pedido": order})
}
