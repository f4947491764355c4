package routes

import (
	"avocare/api/handlers"
	"avocare/api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter собирает тестовый бэкенд: метрики, счетчик запросов и все группы /api
func NewRouter(b *handlers.Backend) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("avocare-stub"))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Use(b.CountRequests())
	PublicApi(router, b)
	ForumApi(router, b)
	return router
}
