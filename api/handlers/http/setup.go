package http

import (
	"crypto/tls"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/app"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
)

// NewRouter builds the fiber application with every route mounted. Run serves it.
func NewRouter(appContainer app.AppContainer, cfg config.ServerConfig) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:      "Community Scanner Coordinator",
		ErrorHandler: errorHandler,
	})
	router.Use(helmet.New())
	router.Use(TraceMiddleware())
	router.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} TraceID: ${locals:traceID}\n",
		Output: os.Stdout,
	}))

	router.Get("/", func(c *fiber.Ctx) error {
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		return c.SendString("Community scanner coordinator")
	})

	api := router.Group("/api/v1", setUserContext)

	registerAuthAPI(appContainer, cfg, api.Group("/auth"))
	registerScannerAPI(appContainer, cfg, api.Group("/community-scanners"))

	return router
}

func Run(appContainer app.AppContainer, cfg config.ServerConfig) error {
	router := NewRouter(appContainer, cfg)

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
		PreferServerCipherSuites: true,
	}

	router.Server().TLSConfig = tlsConfig
	if !cfg.SslEnabled {
		return router.Listen(fmt.Sprintf(":%d", cfg.HttpPort))
	}
	return router.ListenTLS(fmt.Sprintf(":%d", cfg.HttpPort), cfg.Cert, cfg.Key)
}

func registerAuthAPI(appContainer app.AppContainer, cfg config.ServerConfig, router fiber.Router) {
	operatorSvcGetter := operatorServiceGetter(appContainer, cfg)
	router.Post("/sign-in", setTransaction(appContainer.DB()), SignIn(operatorSvcGetter, cfg))
	router.Post("/sign-out", setTransaction(appContainer.DB()), SignOut(operatorSvcGetter))
}

func registerScannerAPI(appContainer app.AppContainer, cfg config.ServerConfig, router fiber.Router) {
	scannerSvcGetter := scannerServiceGetter(appContainer)
	auth := newAuthMiddleware([]byte(cfg.Secret))

	// scanner-facing
	router.Post("/", RegisterScanner(scannerSvcGetter))
	router.Post("/:id/heartbeat", Heartbeat(scannerSvcGetter))

	// operator-facing; literal paths go before /:id
	router.Get("/metrics", auth, GetFleetMetrics(scannerSvcGetter))
	router.Get("/ranking", auth, RankScanners(scannerSvcGetter))
	router.Get("/", auth, ListScanners(scannerSvcGetter))
	router.Get("/:id", auth, GetScanner(scannerSvcGetter))
	router.Post("/:id/outcomes", auth, RecordOutcome(scannerSvcGetter))
	router.Post("/:id/blacklist", auth, setTransaction(appContainer.DB()), BlacklistScanner(scannerSvcGetter))
	router.Delete("/:id/blacklist", auth, setTransaction(appContainer.DB()), LiftBlacklist(scannerSvcGetter))
}
