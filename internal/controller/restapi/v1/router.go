package v1

import (
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/middleware"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/memories-server/internal/usecase"
	"github.com/andreyxaxa/memories-server/pkg/logger"
	"github.com/gofiber/fiber/v2"
)

func NewUserRoutes(group fiber.Router, accounts usecase.AccountUseCase, l logger.Interface) {
	r := &V1{accounts: accounts, logger: l, v: validate.New()}

	usersGroup := group.Group("/users")
	{
		usersGroup.Post("/login", r.login)
		usersGroup.Post("/create-account", r.createAccount)
		usersGroup.Post("/lookup", r.lookup)
	}
}

func NewImageRoutes(
	group fiber.Router,
	tokens usecase.TokenUseCase,
	uploads usecase.UploadUseCase,
	retrieval usecase.RetrievalUseCase,
	l logger.Interface,
) {
	r := &V1{uploads: uploads, retrieval: retrieval, logger: l, v: validate.New()}

	// per route, so unknown paths under /images still reach the not-found handler
	auth := middleware.Auth(tokens, l)

	imagesGroup := group.Group("/images")
	{
		imagesGroup.Post("/upload", auth, r.upload)
		imagesGroup.Get("/listing", auth, r.listing)
		imagesGroup.Post("/s3-presigned", auth, r.presign)
	}
}
