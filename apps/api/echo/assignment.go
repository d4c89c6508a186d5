package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
)

type assignmentApi struct {
	svc       *assignment.Service
	schoolSvc *school.Service
	validate  *validator.Validate
}

func registerAssignmentAPI(g *echo.Group, svc *assignment.Service, schoolSvc *school.Service, validate *validator.Validate) {
	api := assignmentApi{svc: svc, schoolSvc: schoolSvc, validate: validate}

	cg := g.Group("/classes/:id/assignments")
	cg.POST("", api.create)
	cg.GET("", api.queryByClass)

	ag := g.Group("/assignments/:id")
	ag.GET("", api.retrieve)
	ag.GET("/groups", api.queryGroups)
	ag.POST("/groups", api.createGroup)
	ag.GET("/extensions", api.queryExtensions)
	ag.POST("/extensions", api.grantExtensions)
	ag.DELETE("/extensions", api.revokeExtensions)
}

func (api *assignmentApi) getAssignment(ctx echo.Context) (assignment.Assignment, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return assignment.Assignment{}, err
	}
	a, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return a, nil
}

func (api *assignmentApi) create(ctx echo.Context) error {
	classID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	cls, err := api.schoolSvc.GetByID(classID)
	if err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding class by ID")
	}

	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	data.ClassID = cls.ID
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentApi) queryByClass(ctx echo.Context) error {
	classID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.schoolSvc.GetByID(classID); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding class by ID")
	}

	assignments, err := api.svc.QueryByClass(classID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []assignment.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentApi) retrieve(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentApi) queryGroups(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	studentID, err := intQuery(ctx, "student")
	if err != nil {
		return err
	}

	groups, err := api.svc.QueryGroups(a.ID, studentID)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []assignment.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *assignmentApi) createGroup(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	var data GroupCreateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GroupCreateRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	group, err := api.svc.CreateGroup(a, data.Members)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, group)
}

func (api *assignmentApi) queryExtensions(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}
	exts, err := api.svc.QueryExtensions(a.ID)
	if err != nil {
		return errors.Wrap(err, "querying extensions")
	}
	if exts == nil {
		exts = []assignment.Extension{}
	}
	return ctx.JSON(http.StatusOK, exts)
}

func (api *assignmentApi) grantExtensions(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	var data ExtensionGrantRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExtensionGrantRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.GrantExtensions(a, assignment.Grant{
		ExtendedDeadline: data.parsedDeadline,
		All:              data.All,
		StudentIDs:       data.Students,
	})
	if err != nil {
		return errors.Wrap(err, "granting extensions")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *assignmentApi) revokeExtensions(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	var data ExtensionRevokeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ExtensionRevokeRequest")
	}

	if err := api.svc.RevokeExtensions(a, assignment.Revocation{
		All:        data.All,
		StudentIDs: data.Students,
	}); err != nil {
		return errors.Wrap(err, "revoking extensions")
	}
	return ctx.NoContent(http.StatusNoContent)
}
