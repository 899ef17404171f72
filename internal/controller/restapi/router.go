package restapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andreyxaxa/memories-server/config"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/middleware"
	v1 "github.com/andreyxaxa/memories-server/internal/controller/restapi/v1"
	"github.com/andreyxaxa/memories-server/internal/infrastructure/metrics"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const msgRouteNotFound = "Requested service endpoint not found."

// UseCases groups what the HTTP surface depends on.
type UseCases struct {
	Tokens    usecase.TokenUseCase
	Accounts  usecase.AccountUseCase
	Uploads   usecase.UploadUseCase
	Retrieval usecase.RetrievalUseCase
}

// @title Memories server
// @version 1.0.0
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func NewRouter(
	app *fiber.App,
	cfg *config.Config,
	uc UseCases,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	l logger.Interface,
) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowHeaders: strings.Join([]string{fiber.HeaderOrigin, fiber.HeaderContentType, fiber.HeaderAccept, fiber.HeaderAuthorization}, ","),
	}))
	app.Use(middleware.Logger(l))
	app.Use(middleware.Metrics(m))

	// K8s probe
	app.Get("/healthz", func(ctx *fiber.Ctx) error { return ctx.SendStatus(http.StatusOK) })

	// Prometheus metrics
	if cfg.Metrics.Enabled && gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Swagger
	if cfg.Swagger.Enabled {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	// Routers
	v1.NewUserRoutes(app, uc.Accounts, l)
	v1.NewImageRoutes(app, uc.Tokens, uc.Uploads, uc.Retrieval, l)

	app.Use(func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"message": msgRouteNotFound})
	})
}

// ErrorHandler answers errors that escaped the handlers.
func ErrorHandler(l logger.Interface) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if fe.Code == http.StatusNotFound {
				return ctx.Status(fe.Code).JSON(fiber.Map{"message": msgRouteNotFound})
			}
			if fe.Code < http.StatusInternalServerError {
				return ctx.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
			}
		}

		l.Error(err, "restapi - ErrorHandler - path=%s", ctx.Path())

		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
