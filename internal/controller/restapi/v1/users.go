package v1

import (
	"errors"
	"net/http"

	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/request"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/response"
	"github.com/andreyxaxa/memories-server/internal/controller/restapi/v1/validate"
	"github.com/andreyxaxa/memories-server/internal/dto"
	"github.com/andreyxaxa/memories-server/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

// @Summary 	Create account
// @Description Registers a user and returns an access token
// @Tags 		users
// @Accept 		json
// @Produce 	json
// @Param 		request body request.CreateAccount true "New account"
// @Success 	200 {object} response.Session
// @Failure 	400 {object} response.Error "Missing field, username or phone number taken"
// @Failure 	500 {object} response.InternalError
// @Router 		/users/create-account [post]
func (r *V1) createAccount(ctx *fiber.Ctx) error {
	var body request.CreateAccount

	if err := ctx.BodyParser(&body); err != nil {
		return badBody(ctx)
	}

	if err := validate.Struct(r.v, body); err != nil {
		return errorResponse(ctx, err)
	}

	session, err := r.accounts.CreateAccount(ctx.UserContext(), dto.CreateAccountInput{
		Username:    body.Username,
		Password:    body.Password,
		PhoneNumber: body.PhoneNumber,
		Name:        body.Name,
	})
	if err != nil {
		return r.userError(ctx, err, "restapi - v1 - createAccount")
	}

	return ctx.Status(http.StatusOK).JSON(newSession(session))
}

// @Summary 	Login
// @Description Verifies credentials and returns an access token
// @Tags 		users
// @Accept 		json
// @Produce 	json
// @Param 		request body request.Login true "Credentials"
// @Success 	200 {object} response.Session
// @Failure 	400 {object} response.Error "Unknown user or wrong password"
// @Failure 	500 {object} response.InternalError
// @Router 		/users/login [post]
func (r *V1) login(ctx *fiber.Ctx) error {
	var body request.Login

	if err := ctx.BodyParser(&body); err != nil {
		return badBody(ctx)
	}

	if err := validate.Struct(r.v, body); err != nil {
		return errorResponse(ctx, err)
	}

	session, err := r.accounts.Login(ctx.UserContext(), dto.LoginInput{
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		return r.userError(ctx, err, "restapi - v1 - login")
	}

	return ctx.Status(http.StatusOK).JSON(newSession(session))
}

// @Summary 	Lookup
// @Description Reports whether a username or phone number is already registered
// @Tags 		users
// @Accept 		json
// @Produce 	json
// @Param 		request body request.Lookup true "Username and/or phone number"
// @Success 	200 {object} response.Lookup
// @Failure 	400 {object} response.Error
// @Failure 	500 {object} response.InternalError
// @Router 		/users/lookup [post]
func (r *V1) lookup(ctx *fiber.Ctx) error {
	var body request.Lookup

	if err := ctx.BodyParser(&body); err != nil {
		return badBody(ctx)
	}

	if err := validate.Struct(r.v, body); err != nil {
		return errorResponse(ctx, err)
	}

	res, err := r.accounts.Lookup(ctx.UserContext(), dto.LookupInput{
		Username:    body.Username,
		PhoneNumber: body.PhoneNumber,
	})
	if err != nil {
		return r.userError(ctx, err, "restapi - v1 - lookup")
	}

	return ctx.Status(http.StatusOK).JSON(response.Lookup{
		UsernameExists:    res.UsernameExists,
		PhoneNumberExists: res.PhoneNumberExists,
	})
}

// userError answers credential failures with 400 rather than 401:
// they are form errors, not token errors.
func (r *V1) userError(ctx *fiber.Ctx, err error, where string) error {
	var fe *errs.FieldError
	if errors.As(err, &fe) {
		return ctx.Status(http.StatusBadRequest).JSON(response.Error{Message: fe.Message, Field: fe.Field})
	}

	r.logger.Error(err, where)

	return errorResponse(ctx, err)
}

func newSession(s dto.Session) response.Session {
	return response.Session{
		AccessToken: s.AccessToken,
		DisplayName: s.DisplayName,
		Message:     s.Message,
	}
}
