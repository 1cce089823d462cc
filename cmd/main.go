package main

import (
	"log"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ptnhung/ffgroups-server/config"
	"github.com/ptnhung/ffgroups-server/controllers"
	"github.com/ptnhung/ffgroups-server/logging"
	"github.com/ptnhung/ffgroups-server/routes"
)

func main() {
	logging.Setup()

	if err := config.Load(); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.ConnectDB()
	controllers.Init()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return origin == config.App.PortalBaseURL
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		panic(err)
	}

	routes.SetupRoutes(r)

	slog.Info("server listening", "port", config.App.Port)
	if err := r.Run(":" + config.App.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
