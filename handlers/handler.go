// Package handlers exposes the order lifecycle over HTTP.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/notify"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/orders"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Catalog supplies the restaurant and the live product rows prices are
// snapshotted from.
type Catalog interface {
	Restaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	Products(ctx context.Context, ids []uint) (map[uint]models.Product, error)
}

type Handler struct {
	engine  *orders.Engine
	query   *orders.QueryService
	catalog Catalog
	hub     *notify.Hub
	logger  *logrus.Logger
}

func New(engine *orders.Engine, query *orders.QueryService, catalog Catalog, hub *notify.Hub, logger *logrus.Logger) *Handler {
	return &Handler{engine: engine, query: query, catalog: catalog, hub: hub, logger: logger}
}

// respondError maps the order error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orders.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, orders.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, orders.ErrExpired),
		errors.Is(err, orders.ErrStaleTransition),
		errors.Is(err, orders.ErrInvalidInput),
		errors.Is(err, orders.ErrConfirmationMismatch):
		status = http.StatusBadRequest
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		msg = orders.ErrStore.Error()
	}
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

// pathID parses a positive numeric path parameter, answering 400 otherwise.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return uint(id), true
}

// actingRestaurant resolves the restaurant a request acts for. A restaurant
// token pins it; requested must then be zero or equal. Unauthenticated
// requests must name it.
func actingRestaurant(c *gin.Context, requested uint) (uint, error) {
	role, authed := middleware.GetRole(c)
	if !authed {
		if requested == 0 {
			return 0, fmt.Errorf("%w: restaurante_id is required", orders.ErrInvalidInput)
		}
		return requested, nil
	}
	if role != models.RoleRestaurant {
		return 0, fmt.Errorf("%w: only restaurant accounts can act on orders", orders.ErrForbidden)
	}
	own, ok := middleware.GetRestaurantID(c)
	if !ok {
		return 0, fmt.Errorf("%w: token carries no restaurant", orders.ErrForbidden)
	}
	if requested != 0 && requested != own {
		return 0, fmt.Errorf("%w: token belongs to restaurant %d", orders.ErrForbidden, own)
	}
	return own, nil
}

// canReadRestaurant reports whether the caller may read restaurantID's boards.
func canReadRestaurant(c *gin.Context, restaurantID uint) bool {
	role, authed := middleware.GetRole(c)
	if !authed || role == models.RoleAdmin {
		return true
	}
	own, ok := middleware.GetRestaurantID(c)
	return role == models.RoleRestaurant && ok && own == restaurantID
}

// canReadOrder reports whether the caller may see order.
func canReadOrder(c *gin.Context, order *models.Order) bool {
	role, authed := middleware.GetRole(c)
	if !authed {
		return true
	}
	switch role {
	case models.RoleAdmin, models.RoleCourier:
		return true
	case models.RoleRestaurant:
		own, ok := middleware.GetRestaurantID(c)
		return ok && own == order.RestaurantID
	case models.RoleCustomer:
		uid, _ := middleware.GetUserID(c)
		return uid == order.CustomerID
	}
	return false
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Access denied"})
}
