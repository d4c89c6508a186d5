package echoapi

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/kazadi/darasa/core"
)

const errInvalidDatetime = "invalid datetime format, expected RFC 3339"

type (
	// RosterPatchRequest adds students to a class roster by email and/or
	// removes one.
	RosterPatchRequest struct {
		Add    []string `json:"add" validate:"omitempty,dive,email"`
		Remove string   `json:"remove" validate:"omitempty,email"`
	}

	// ExtensionGrantRequest grants a deadline extension to the whole class
	// and/or a list of students.
	ExtensionGrantRequest struct {
		ExtendedDeadline string  `json:"extended_deadline" validate:"required"`
		All              bool    `json:"all"`
		Students         []int64 `json:"students"`

		parsedDeadline time.Time
	}

	// ExtensionRevokeRequest deletes the class-wide extension and/or the
	// personal extensions of the listed students.
	ExtensionRevokeRequest struct {
		All      bool    `json:"all"`
		Students []int64 `json:"students"`
	}

	// GroupCreateRequest builds an assignment group from member emails.
	GroupCreateRequest struct {
		Members []string `json:"members" validate:"required,dive,email"`
	}
)

func (rr *RosterPatchRequest) Validate(validate *validator.Validate) error {
	for i := range rr.Add {
		rr.Add[i] = core.CleanString(rr.Add[i], true /* lower */)
	}
	rr.Remove = core.CleanString(rr.Remove, true /* lower */)
	return validate.Struct(rr)
}

func (gr *ExtensionGrantRequest) Validate(validate *validator.Validate) error {
	if err := validate.Struct(gr); err != nil {
		return err
	}
	deadline, err := time.Parse(time.RFC3339, gr.ExtendedDeadline)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{
			Field: "extended_deadline", Error: errInvalidDatetime,
		})
	}
	gr.parsedDeadline = deadline.UTC()
	return nil
}

func (gr *GroupCreateRequest) Validate(validate *validator.Validate) error {
	for i := range gr.Members {
		gr.Members[i] = core.CleanString(gr.Members[i], true /* lower */)
	}
	return validate.Struct(gr)
}

// intParam parses a path parameter as an id; unparsable ids read as 404s.
func intParam(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, errHttpNotFound
	}
	return id, nil
}

// intQuery parses an optional integer query parameter, 0 when absent.
func intQuery(ctx echo.Context, name string) (int64, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{
			Field: name, Error: "invalid integer value",
		})
	}
	return id, nil
}

func boolQuery(ctx echo.Context, name string) bool {
	val, _ := strconv.ParseBool(ctx.QueryParam(name))
	return val
}
