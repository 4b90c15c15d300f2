package handlers

import (
	"net/http"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the full state machine for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	var terminal []models.OrderStatus
	for _, s := range models.AllStatuses {
		if s.IsTerminal() {
			terminal = append(terminal, s)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"statuses":        models.AllStatuses,
		"terminal_states": terminal,
		"description":     "Delivery Order Lifecycle State Machine",
	})
}

// Health reports liveness. ping checks the database.
func Health(ping func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Delivery Order Lifecycle API",
		})
	}
}
