package routes

import (
	"github.com/Victorbatista2/Projeto-Delivery-sub000/handlers"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/metrics"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/models"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	Handler *handlers.Handler
	Metrics *metrics.Metrics
	// JWTSecret enables bearer authentication on /api and /ws when set.
	JWTSecret []byte
	// Ping backs the health check.
	Ping func() error
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	authEnabled := len(d.JWTSecret) > 0

	// ── Ops ────────────────────────────────────────────────────────
	r.GET("/health", handlers.Health(d.Ping))
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// State machine info (great for docs/Postman)
	r.GET("/api/state-machine", handlers.GetStateMachineInfo)

	// ── Orders ─────────────────────────────────────────────────────
	api := r.Group("/api/pedidos")
	ws := r.Group("/ws")
	if authEnabled {
		api.Use(middleware.AuthRequired(d.JWTSecret))
		ws.Use(middleware.AuthRequired(d.JWTSecret))
	}
	{
		api.POST("", h.CreateOrder)
		api.GET("/:pedidoId", h.GetOrder)
		api.GET("/:pedidoId/historico", h.GetOrderHistory)
		api.GET("/usuario/:usuarioId", h.GetUserOrders)

		// Restaurant dashboard
		api.GET("/restaurante/:restauranteId/pendentes", h.GetPendingOrders)
		api.GET("/restaurante/:restauranteId/aceitos", h.GetAcceptedOrders)
		api.GET("/restaurante/:restauranteId/finalizados", h.GetFinalizedOrders)

		// Restaurant actions
		api.PUT("/:pedidoId/aceitar", h.AcceptOrder())
		api.PUT("/:pedidoId/recusar", h.RejectOrder())
		api.PUT("/:pedidoId/cancelar", h.CancelOrder())
		api.PUT("/:pedidoId/preparar", h.StartPreparing())
		api.PUT("/:pedidoId/pronto", h.MarkReady())
		api.PUT("/:pedidoId/saiu-para-entrega", h.DispatchOrder())

		// Delivery confirmation
		api.PUT("/:pedidoId/finalizar", h.FinalizeOrder)
	}
	ws.GET("/restaurante/:restauranteId", h.RestaurantFeed)

	// ── Admin routes ───────────────────────────────────────────────
	// Without authentication there is no way to tell an admin apart.
	if authEnabled {
		admin := r.Group("/api/admin")
		admin.Use(middleware.AuthRequired(d.JWTSecret), middleware.RoleRequired(models.RoleAdmin))
		{
			admin.PUT("/pedidos/:pedidoId/status", h.AdminForceOrderStatus)
		}
	}
}
