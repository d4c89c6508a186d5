package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/user"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, svc *school.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, validate: validate}

	cg := g.Group("/classes")
	cg.POST("", api.create)
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/students", api.roster)
	dg.PATCH("/students", api.patchRoster)
}

func (api *schoolApi) getClass(ctx echo.Context) (school.Class, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return school.Class{}, err
	}
	cls, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return school.Class{}, errHttpNotFound
		}
		return school.Class{}, errors.Wrap(err, "finding class by ID")
	}
	return cls, nil
}

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(data)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{
				Field: "teacher_id", Error: "no such user",
			})
		}
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *schoolApi) query(ctx echo.Context) error {
	teacherID, err := intQuery(ctx, "teacher")
	if err != nil {
		return err
	}
	studentID, err := intQuery(ctx, "student")
	if err != nil {
		return err
	}

	var classes []school.Class
	switch {
	case teacherID != 0:
		classes, err = api.svc.QueryByTeacher(teacherID)
	case studentID != 0:
		classes, err = api.svc.QueryByStudent(studentID)
	default:
		return core.NewValidationError(errors.New("either teacher or student query parameter is required"))
	}
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	cls, err := api.getClass(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *schoolApi) roster(ctx echo.Context) error {
	cls, err := api.getClass(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.Roster(cls.ID)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) patchRoster(ctx echo.Context) error {
	cls, err := api.getClass(ctx)
	if err != nil {
		return err
	}

	var data RosterPatchRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RosterPatchRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if data.Remove != "" {
		if err := api.svc.RemoveStudent(cls, data.Remove); err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "removing student")
		}
	}

	switch len(data.Add) {
	case 0:
		students, err := api.svc.Roster(cls.ID)
		if err != nil {
			return errors.Wrap(err, "querying roster")
		}
		return ctx.JSON(http.StatusOK, school.RosterResult{Students: students})
	case 1:
		// single addition fails loudly; bulk additions report partial results
		if _, err := api.svc.AddStudent(cls, data.Add[0]); err != nil {
			cause := errors.Cause(err)
			if cause == school.ErrEmailNotAllowed || cause == user.ErrNotFound {
				return core.NewValidationError(err, core.FieldError{
					Field: "add", Error: cause.Error(),
				})
			}
			return errors.Wrap(err, "adding student")
		}
		students, err := api.svc.Roster(cls.ID)
		if err != nil {
			return errors.Wrap(err, "querying roster")
		}
		return ctx.JSON(http.StatusOK, school.RosterResult{Students: students})
	default:
		res, err := api.svc.AddStudents(cls, data.Add)
		if err != nil {
			return errors.Wrap(err, "adding students")
		}
		return ctx.JSON(http.StatusOK, res)
	}
}
