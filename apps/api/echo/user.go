package echoapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/user"
)

const profileImageField = "profile_image"

type userApi struct {
	auth     *authenticator
	svc      user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc user.Service, validate *validator.Validate) {
	api := userApi{auth: auth, svc: svc, validate: validate}

	ag := g.Group("/accounts")

	// un-authed endpoints
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/refresh", api.refreshToken) // needs the refresh cookie only

	// authed endpoints
	ug := ag.Group("", jwt)
	ug.POST("/logout", api.logout)
	ug.GET("/user", api.retrieve)
	ug.PATCH("/profile/update", api.update)
	ug.GET("/profile", api.retrieveProfile)
	ug.POST("/profile", api.createProfile)
	ug.PUT("/profile", api.updateProfile)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	access, err := api.auth.setAuthCookies(ctx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"user": usr.Public(), "access": access})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.authenticate(ctx, data.Email, data.Password)
	if err != nil {
		return err
	}
	usr, err = api.svc.SetLastLogin(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	access, err := api.auth.setAuthCookies(ctx, usr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"user": usr.Public(), "access": access})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	claims, err := api.auth.refreshClaims(ctx)
	if err != nil {
		return err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errRefreshInvalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return errAccountDeactivated
	}

	access, err := api.auth.generateToken(
		api.auth.getUserClaims(usr, accessTokenType, api.auth.conf.Server.JWTAccessExpirationDelta))
	if err != nil {
		return errors.Wrap(err, "generating access token")
	}
	api.auth.setCookie(ctx, accessTokenCookie, access, api.auth.conf.Server.JWTAccessExpirationDelta)
	return ctx.JSON(http.StatusOK, echo.Map{"access": access})
}

// logout revokes the refresh token and clears both cookies. Always succeeds
// from the client's point of view.
func (api *userApi) logout(ctx echo.Context) error {
	api.auth.blacklistRefreshToken(ctx)
	api.auth.clearAuthCookies(ctx)
	return ctx.NoContent(http.StatusResetContent)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr.Public())
}

func (api *userApi) update(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}

	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr.Public())
}

func (api *userApi) retrieveProfile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	prof, err := api.svc.GetProfile(ctx.Request().Context(), usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newProfileResponse(ctx, prof))
}

func (api *userApi) createProfile(ctx echo.Context) error {
	return api.saveProfile(ctx, api.svc.CreateProfile, http.StatusCreated)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	return api.saveProfile(ctx, api.svc.UpdateProfile, http.StatusOK)
}

func (api *userApi) saveProfile(
	ctx echo.Context,
	save func(context.Context, string, user.ProfileInput, string) (user.Profile, error),
	successCode int,
) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}

	var data user.ProfileInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ProfileInput")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var imagePath string
	if file, err := ctx.FormFile(profileImageField); err == nil {
		if imagePath, err = api.saveProfileImage(file, usr.ID); err != nil {
			return errors.Wrap(err, "saving profile image")
		}
	}

	prof, err := save(ctx.Request().Context(), usr.ID, data, imagePath)
	if err != nil {
		return err
	}
	return ctx.JSON(successCode, newProfileResponse(ctx, prof))
}

// saveProfileImage stores the upload under a per-user directory with a random
// file name and returns the media-relative path.
func (api *userApi) saveProfileImage(file *multipart.FileHeader, userID string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = src.Close() }()

	relPath := filepath.Join("user_images", userID, uuid.New().String()+filepath.Ext(file.Filename))
	absPath := filepath.Join(api.auth.conf.MediaRoot, relPath)
	if err = os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", err
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = dst.Close() }()

	if _, err = io.Copy(dst, src); err != nil {
		return "", err
	}
	return relPath, nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	ProfileResponse struct {
		user.Profile
		ProfileImageURL string `json:"profile_image_url,omitempty"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func newProfileResponse(ctx echo.Context, prof user.Profile) ProfileResponse {
	res := ProfileResponse{Profile: prof}
	if prof.ImagePath != "" {
		scheme := ctx.Scheme()
		res.ProfileImageURL = fmt.Sprintf("%s://%s/media/%s", scheme, ctx.Request().Host, filepath.ToSlash(prof.ImagePath))
	}
	return res
}
