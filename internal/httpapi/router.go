package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/onboardly/onboardly/internal/common"
	"github.com/onboardly/onboardly/internal/httpapi/handlers"
	"github.com/onboardly/onboardly/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/login", h.Login)
	r.POST("/chat", h.Chat)

	return r
}
