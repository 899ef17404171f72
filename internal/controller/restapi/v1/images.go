package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/memories-server/internal/controller/restapi/middleware"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// @Summary 	Request upload URLs
// @Description Creates an image record per filename and returns a presigned PUT URL for each
// @Tags 		images
// @Accept 		json
// @Produce 	json
// @Security 	BearerAuth
// @Param 		request body request.Upload true "{image} or {images:[...]}"
// @Success 	200 {object} response.Upload "Per-file URL or error"
// @Failure 	400 {object} response.Error "No filenames or too many"
// @Failure 	401 {object} response.Error "Missing or invalid token"
// @Failure 	500 {object} response.InternalError
// @Router 		/images/upload [post]
func (r *V1) upload(ctx *fiber.Ctx) error {
	identity, ok := middleware.Identity(ctx)
	if !ok {
		return errorResponse(ctx, errs.ErrMissingToken)
	}

	var body request.Upload

	if err := ctx.BodyParser(&body); err != nil {
		return badBody(ctx)
	}

	if err := validate.Struct(r.v, body); err != nil {
		return errorResponse(ctx, err)
	}

	slots, err := r.uploads.RequestUpload(ctx.UserContext(), identity, body.Filenames())
	if err != nil {
		if !errors.Is(err, errs.ErrValidation) {
			r.logger.Error(err, "restapi - v1 - upload")
		}

		return errorResponse(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(response.NewUpload(slots))
}

// @Summary 	List images
// @Description Returns the caller's images with fresh presigned URLs for the original and the thumbnail
// @Tags 		images
// @Produce 	json
// @Security 	BearerAuth
// @Success 	200 {array}  response.Image
// @Failure 	401 {object} response.Error "Missing or invalid token"
// @Failure 	500 {object} response.InternalError
// @Router 		/images/listing [get]
func (r *V1) listing(ctx *fiber.Ctx) error {
	identity, ok := middleware.Identity(ctx)
	if !ok {
		return errorResponse(ctx, errs.ErrMissingToken)
	}

	views, err := r.retrieval.ListImages(ctx.UserContext(), identity)
	if err != nil {
		r.logger.Error(err, "restapi - v1 - listing")

		return errorResponse(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(response.NewImages(views))
}

// @Summary 	Re-sign image URLs
// @Description Returns fresh presigned URLs for one of the caller's images
// @Tags 		images
// @Accept 		json
// @Produce 	json
// @Security 	BearerAuth
// @Param 		request body request.Presign true "Image ID(uuid)"
// @Success 	200 {object} response.Image
// @Failure 	400 {object} response.Error "Invalid ID"
// @Failure 	401 {object} response.Error "Missing or invalid token"
// @Failure 	404 {object} response.Error "Image not found"
// @Failure 	500 {object} response.InternalError
// @Router 		/images/s3-presigned [post]
func (r *V1) presign(ctx *fiber.Ctx) error {
	identity, ok := middleware.Identity(ctx)
	if !ok {
		return errorResponse(ctx, errs.ErrMissingToken)
	}

	var body request.Presign

	if err := ctx.BodyParser(&body); err != nil {
		return badBody(ctx)
	}

	if err := validate.Struct(r.v, body); err != nil {
		return errorResponse(ctx, err)
	}

	id, err := uuid.Parse(body.ImageID)
	if err != nil {
		return errorResponse(ctx, errs.NewFieldError("image_id", validate.MsgUUID, errs.ErrValidation))
	}

	view, err := r.retrieval.Resign(ctx.UserContext(), identity, id)
	if err != nil {
		if !errors.Is(err, errs.ErrRecordNotFound) {
			r.logger.Error(err, "restapi - v1 - presign")
		}

		return errorResponse(ctx, err)
	}

	return ctx.Status(http.StatusOK).JSON(response.NewImage(view))
}
