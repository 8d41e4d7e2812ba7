// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campusride/internal/http/handlers"
	"campusride/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(log), middleware.Recovery(log))

	groupHandler := handlers.NewGroupHandler(deps.Groups)
	r.GET("/groups", groupHandler.List)
	r.POST("/create_group", groupHandler.Create)
	r.POST("/join_group", groupHandler.Join)

	matchHandler := handlers.NewMatchHandler(deps.Matching)
	r.POST("/find_groups", matchHandler.Find)
	r.POST("/recommend", matchHandler.Find)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	return r
}
