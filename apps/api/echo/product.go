package echoapi

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shulehub/shule/core/product"
)

type productApi struct {
	svc      product.Service
	validate *validator.Validate
}

func registerProductAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc product.Service, validate *validator.Validate) {
	api := productApi{svc: svc, validate: validate}

	g.GET("/products", api.query)

	ag := g.Group("/products", jwt, adminMiddleware())
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
}

// Handlers

func (api *productApi) query(ctx echo.Context) error {
	category := product.Category(ctx.QueryParam("category"))
	if category != "" && !category.Valid() {
		return ctx.JSON(http.StatusOK, []ProductResponse{})
	}

	prds, err := api.svc.QueryActive(ctx.Request().Context(), category)
	if err != nil {
		return errors.Wrap(err, "querying products")
	}
	res := make([]ProductResponse, 0, len(prds))
	for _, prd := range prds {
		res = append(res, newProductResponse(ctx, prd))
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *productApi) create(ctx echo.Context) error {
	var data product.NewProduct
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProduct")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	prd, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	return ctx.JSON(http.StatusCreated, newProductResponse(ctx, prd))
}

func (api *productApi) update(ctx echo.Context) error {
	var data product.UpdateProduct
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProduct")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	prd, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newProductResponse(ctx, prd))
}

// ProductResponse carries the absolute image URL, built per request.
type ProductResponse struct {
	product.Product
	ImageURL string `json:"image_url,omitempty"`
}

func newProductResponse(ctx echo.Context, prd product.Product) ProductResponse {
	res := ProductResponse{Product: prd}
	if prd.ImagePath != "" {
		res.ImageURL = fmt.Sprintf("%s://%s/media/%s", ctx.Scheme(), ctx.Request().Host, filepath.ToSlash(prd.ImagePath))
	}
	return res
}
