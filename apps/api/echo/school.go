package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/school"
)

type schoolApi struct {
	svc      school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}

	ag := g.Group("/accounts", jwt)

	// reference data: readable by everyone, managed by admin
	ag.GET("/sections", api.querySections)
	ag.POST("/sections", api.createSection, adminMiddleware())
	ag.DELETE("/sections/:id", api.destroySection, adminMiddleware())

	ag.GET("/subjects", api.querySubjects)
	ag.POST("/subjects", api.createSubject, adminMiddleware())
	ag.DELETE("/subjects/:id", api.destroySubject, adminMiddleware())

	ag.GET("/teacher-subjects", api.queryOfferings)
	ag.POST("/teacher-subjects", api.createOffering, adminMiddleware())
	ag.DELETE("/teacher-subjects/:id", api.destroyOffering, adminMiddleware())

	ag.GET("/student-subjects", api.queryEnrollments)
	ag.POST("/student-subjects", api.createEnrollment)
	ag.PUT("/student-subjects/:id", api.updateEnrollment)
	ag.DELETE("/student-subjects/:id", api.destroyEnrollment)
}

// Handlers

func (api *schoolApi) querySections(ctx echo.Context) error {
	secs, err := api.svc.QuerySections(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	if secs == nil {
		secs = []school.Section{}
	}
	return ctx.JSON(http.StatusOK, secs)
}

func (api *schoolApi) createSection(ctx echo.Context) error {
	var data school.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sec, err := api.svc.CreateSection(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api *schoolApi) destroySection(ctx echo.Context) error {
	if err := api.svc.DeleteSection(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	subs, err := api.svc.QuerySubjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subs == nil {
		subs = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	sub, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	if err := api.svc.DeleteSubject(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) queryOfferings(ctx echo.Context) error {
	offs, err := api.svc.QueryOfferings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teacher subjects")
	}
	if offs == nil {
		offs = []school.OfferingDetail{}
	}
	return ctx.JSON(http.StatusOK, offs)
}

func (api *schoolApi) createOffering(ctx echo.Context) error {
	var data school.NewOffering
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOffering")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	off, err := api.svc.CreateOffering(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, off)
}

func (api *schoolApi) destroyOffering(ctx echo.Context) error {
	if err := api.svc.DeleteOffering(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) queryEnrollments(ctx echo.Context) error {
	enrs, err := api.svc.QueryEnrollments(ctx.Request().Context(), ctx.QueryParam("student"))
	if err != nil {
		return errors.Wrap(err, "querying student subjects")
	}
	if enrs == nil {
		enrs = []school.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *schoolApi) createEnrollment(ctx echo.Context) error {
	var data school.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	enr, err := api.svc.CreateEnrollment(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *schoolApi) updateEnrollment(ctx echo.Context) error {
	var data school.UpdateEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEnrollment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	enr, err := api.svc.UpdateEnrollment(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *schoolApi) destroyEnrollment(ctx echo.Context) error {
	if err := api.svc.DeleteEnrollment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
