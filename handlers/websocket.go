package handlers

import (
	"github.com/gin-gonic/gin"
)

// RestaurantFeed streams status changes of one restaurant's orders to its
// dashboard over a websocket.
func (h *Handler) RestaurantFeed(c *gin.Context) {
	restaurantID, ok := pathID(c, "restauranteId")
	if !ok {
		return
	}
	if !canReadRestaurant(c, restaurantID) {
		forbidden(c)
		return
	}
	if err := h.hub.ServeRestaurant(c.Writer, c.Request, restaurantID); err != nil {
		// the upgrader already answered the client
		h.logger.WithError(err).WithField("restaurant_id", restaurantID).Warn("Websocket upgrade failed")
	}
}
