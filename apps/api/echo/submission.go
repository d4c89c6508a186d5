package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/submission"
)

type submissionApi struct {
	svc      *submission.Service
	assigSvc *assignment.Service
	validate *validator.Validate
}

func registerSubmissionAPI(g *echo.Group, svc *submission.Service, assigSvc *assignment.Service, validate *validator.Validate) {
	api := submissionApi{svc: svc, assigSvc: assigSvc, validate: validate}

	ag := g.Group("/assignments/:id/submissions")
	ag.GET("", api.list)
	ag.POST("", api.create)

	sg := g.Group("/submissions/:id")
	sg.GET("", api.retrieve)
	sg.GET("/comments", api.queryComments)
	sg.POST("/comments", api.addComment)
}

func (api *submissionApi) getAssignment(ctx echo.Context) (assignment.Assignment, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return assignment.Assignment{}, err
	}
	a, err := api.assigSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == assignment.ErrNotFound {
			return assignment.Assignment{}, errHttpNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "finding assignment by ID")
	}
	return a, nil
}

func (api *submissionApi) getSubmission(ctx echo.Context) (submission.Submission, error) {
	id, err := intParam(ctx, "id")
	if err != nil {
		return submission.Submission{}, err
	}
	sub, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == submission.ErrNotFound {
			return submission.Submission{}, errHttpNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "finding submission by ID")
	}
	return sub, nil
}

func (api *submissionApi) list(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	requesterID, err := intQuery(ctx, "requester")
	if err != nil {
		return err
	}
	studentID, err := intQuery(ctx, "student")
	if err != nil {
		return err
	}

	subs, err := api.svc.List(a, submission.ListOptions{
		RequesterID: requesterID,
		StudentID:   studentID,
		CurrentOnly: boolQuery(ctx, "current"),
	})
	if err != nil {
		if errors.Cause(err) == submission.ErrAccessRestricted {
			return errHttpRestricted
		}
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionApi) create(ctx echo.Context) error {
	a, err := api.getAssignment(ctx)
	if err != nil {
		return err
	}

	var data submission.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.AssignmentID = a.ID
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionApi) retrieve(ctx echo.Context) error {
	sub, err := api.getSubmission(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionApi) queryComments(ctx echo.Context) error {
	sub, err := api.getSubmission(ctx)
	if err != nil {
		return err
	}
	comments, err := api.svc.QueryComments(sub.ID)
	if err != nil {
		return errors.Wrap(err, "querying comments")
	}
	if comments == nil {
		comments = []submission.Comment{}
	}
	return ctx.JSON(http.StatusOK, comments)
}

func (api *submissionApi) addComment(ctx echo.Context) error {
	sub, err := api.getSubmission(ctx)
	if err != nil {
		return err
	}
	a, err := api.assigSvc.GetByID(sub.AssignmentID)
	if err != nil {
		return errors.Wrap(err, "finding assignment by ID")
	}

	var data submission.NewComment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComment")
	}
	data.SubmissionID = sub.ID
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	comment, err := api.svc.AddComment(a, data)
	if err != nil {
		return errors.Wrap(err, "adding comment")
	}
	return ctx.JSON(http.StatusCreated, comment)
}
