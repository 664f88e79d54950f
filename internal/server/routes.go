package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"
)

func SetupRoutes(h *Handler) http.Handler {
	r := gin.New()

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelDebug,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed))
	r.Use(cors.Default())

	r.GET("/", h.Index)
	r.GET("/healthz", h.Health)

	r.GET("/files", h.Files)
	r.GET("/file", h.File)
	r.GET("/sync", h.Sync)
	r.GET("/check", h.Check)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "not found",
		})
	})

	return r.Handler()
}
