package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core"
	"github.com/shulehub/shule/core/attendance"
	"github.com/shulehub/shule/core/user"
)

type attendanceApi struct {
	svc        attendance.Service
	usrSvc     user.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.Service,
	usrSvc user.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := attendanceApi{svc: svc, usrSvc: usrSvc, validate: validate, translator: translator}

	ag := g.Group("/accounts", jwt)
	ag.GET("/attendance", api.query)
	ag.POST("/attendance", api.record)
}

// Handlers

// record accepts a batch of attendance records. Schema errors are collected
// per item here; referential and authorization checks happen in the service.
// Either way an invalid item rejects the whole batch.
func (api *attendanceApi) record(ctx echo.Context) error {
	var items []attendance.Record
	if err := ctx.Bind(&items); err != nil {
		return errors.Wrap(err, "binding to attendance records")
	}
	if len(items) == 0 {
		return core.NewValidationError(attendance.ErrEmptyBatch)
	}

	itemErrs := make(map[int][]core.FieldError)
	for i := range items {
		if err := api.validate.Struct(&items[i]); err != nil {
			if vErrs, ok := err.(validator.ValidationErrors); ok {
				for _, vErr := range vErrs {
					itemErrs[i] = append(itemErrs[i], core.FieldError{
						Field: vErr.Field(),
						Error: vErr.Translate(api.translator),
					})
				}
				continue
			}
			return errors.Wrap(err, "validating attendance record")
		}
	}
	if len(itemErrs) > 0 {
		return core.NewBatchError(attendance.ErrInvalidBatch, itemErrs)
	}

	principal, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	atts, err := api.svc.Record(ctx.Request().Context(), principal, items)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, atts)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	principal, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	atts, err := api.svc.QueryForTeacher(ctx.Request().Context(), principal)
	if err != nil {
		return err
	}
	if atts == nil {
		atts = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}
