package api

import (
	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapeproxy/api/handler"
	"github.com/use-agent/scrapeproxy/api/middleware"
	"github.com/use-agent/scrapeproxy/config"
)

// NewRouter creates a configured Gin engine with the scrape route.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  Auth
//
// CORS is global so preflight requests are answered without credentials.
func NewRouter(cfg *config.Config, sc handler.ScrapeClient, ex handler.Extractor) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS())

	r.POST("/v2/scrape",
		middleware.Auth(cfg.Auth.Header, cfg.Auth.APIKey),
		handler.Scrape(sc, ex),
	)

	return r
}
