package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core/user"
)

type userApi struct {
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, svc user.ServiceInterface, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	ug := g.Group("/users")
	ug.POST("", api.create)
	ug.GET("", api.query)
	ug.GET("/:id", api.retrieve)
	ug.DELETE("/:id", api.destroy)
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	if email := ctx.QueryParam("email"); email != "" {
		usr, err := api.svc.GetByEmail(email)
		if err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return ctx.JSON(http.StatusOK, []user.User{})
			}
			return errors.Wrap(err, "finding user by email")
		}
		return ctx.JSON(http.StatusOK, []user.User{usr})
	}

	users, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.svc.GetByID(id); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err := api.svc.Delete(id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
