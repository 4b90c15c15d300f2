package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/orders"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type CreateOrderRequest struct {
	CustomerID      uint                `json:"usuario_id"`
	RestaurantID    uint                `json:"restaurante_id" binding:"required"`
	Total           decimal.Decimal     `json:"valor_total"`
	DeliveryAddress string              `json:"endereco_entrega" binding:"required"`
	DeliveryMethod  string              `json:"metodo_entrega" binding:"required"`
	PaymentMethod   string              `json:"metodo_pagamento" binding:"required"`
	ChangeDue       decimal.NullDecimal `json:"troco"`
	Items           []struct {
		ProductID uint `json:"produto_id" binding:"required"`
		Quantity  int  `json:"quantidade" binding:"required,min=1"`
	} `json:"itens" binding:"required,min=1,dive"`
}

// CreateOrder places a new order. Unit prices are captured from the catalog
// at this moment; a repeated Idempotency-Key replays the first order.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	customerID := req.CustomerID
	if role, authed := middleware.GetRole(c); authed {
		uid, _ := middleware.GetUserID(c)
		if role != models.RoleCustomer || (customerID != 0 && customerID != uid) {
			forbidden(c)
			return
		}
		customerID = uid
	}

	restaurant, err := h.catalog.Restaurant(c.Request.Context(), req.RestaurantID)
	switch {
	case errors.Is(err, store.ErrRestaurantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Restaurant not found"})
		return
	case err != nil:
		respondError(c, fmt.Errorf("%w: load restaurant: %v", orders.ErrStore, err))
		return
	case !restaurant.IsOpen:
		badRequest(c, "Restaurant is currently closed")
		return
	}

	ids := make([]uint, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := h.catalog.Products(c.Request.Context(), ids)
	if err != nil {
		respondError(c, fmt.Errorf("%w: load products: %v", orders.ErrStore, err))
		return
	}

	in := orders.CreateOrderInput{
		CustomerID:      customerID,
		RestaurantID:    req.RestaurantID,
		Total:           req.Total,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		ChangeDue:       req.ChangeDue,
		IdempotencyKey:  c.GetHeader(IdempotencyKeyHeader),
	}
	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok || p.RestaurantID != req.RestaurantID {
			badRequest(c, fmt.Sprintf("Product %d not found for this restaurant", it.ProductID))
			return
		}
		if !p.IsAvailable {
			badRequest(c, fmt.Sprintf("Product '%s' is not available", p.Name))
			return
		}
		in.Items = append(in.Items, orders.LineItemInput{ProductID: p.ID, Quantity: it.Quantity, UnitPrice: p.Price})
	}

	order, created, err := h.engine.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	status, msg := http.StatusCreated, "Order placed successfully"
	if !created {
		status, msg = http.StatusOK, "Order already placed"
	}
	c.JSON(status, gin.H{"success": true, "message": msg, "pedido": order})
}

// GetOrder returns one order with customer, restaurant, items and history.
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "pedidoId")
	if !ok {
		return
	}
	order, err := h.query.ByIDWithDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canReadOrder(c, order) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "pedido": order})
}

// GetOrderHistory returns the status events of an order, oldest first.
func (h *Handler) GetOrderHistory(c *gin.Context) {
	id, ok := pathID(c, "pedidoId")
	if !ok {
		return
	}
	order, err := h.query.ByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !canReadOrder(c, order) {
		forbidden(c)
		return
	}
	history, err := h.query.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"pedido_id": order.ID,
		"status":    order.Status,
		"historico": history,
	})
}

// GetUserOrders lists a customer's orders, newest first.
func (h *Handler) GetUserOrders(c *gin.Context) {
	userID, ok := pathID(c, "usuarioId")
	if !ok {
		return
	}
	if role, authed := middleware.GetRole(c); authed && role != models.RoleAdmin {
		if uid, _ := middleware.GetUserID(c); role != models.RoleCustomer || uid != userID {
			forbidden(c)
			return
		}
	}
	list, err := h.query.ForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "pedidos": list})
}
