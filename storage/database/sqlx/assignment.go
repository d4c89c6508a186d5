package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core/assignment"
)

type (
	assignmentRow struct {
		ID                 int64     `db:"id"`
		ClassID            int64     `db:"class_id"`
		Name               string    `db:"name"`
		Description        string    `db:"description"`
		ReleaseDate        time.Time `db:"release_date"`
		SubmissionDeadline time.Time `db:"submission_deadline"`
		CommentingDeadline time.Time `db:"commenting_deadline"`
		CreatedAt          time.Time `db:"created_at"`
		UpdatedAt          time.Time `db:"updated_at"`
	}

	extensionRow struct {
		ID                         int64      `db:"id"`
		AssignmentID               int64      `db:"assignment_id"`
		UserID                     null.Int64 `db:"user_id"`
		ExtendedSubmissionDeadline time.Time  `db:"extended_submission_deadline"`
		CreatedAt                  time.Time  `db:"created_at"`
		UpdatedAt                  time.Time  `db:"updated_at"`
	}
)

func (r assignmentRow) toDomain() assignment.Assignment {
	return assignment.Assignment{
		ID:                 r.ID,
		ClassID:            r.ClassID,
		Name:               r.Name,
		Description:        r.Description,
		ReleaseDate:        r.ReleaseDate,
		SubmissionDeadline: r.SubmissionDeadline,
		CommentingDeadline: r.CommentingDeadline,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func (r extensionRow) toDomain() assignment.Extension {
	return assignment.Extension{
		ID:                         r.ID,
		AssignmentID:               r.AssignmentID,
		UserID:                     r.UserID,
		ExtendedSubmissionDeadline: r.ExtendedSubmissionDeadline,
		CreatedAt:                  r.CreatedAt,
		UpdatedAt:                  r.UpdatedAt,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	const q = `
		INSERT INTO assignments (class_id, name, description, release_date, submission_deadline, commenting_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := repo.db.Get(
		&a.ID, q,
		a.ClassID, a.Name, a.Description, a.ReleaseDate, a.SubmissionDeadline, a.CommentingDeadline, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "creating assignment")
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id int64) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.db.Get(&row, "SELECT * FROM assignments WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment by id")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) QueryAssignmentsByClassID(classID int64) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.db.Select(&rows, "SELECT * FROM assignments WHERE class_id = $1 ORDER BY id", classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by class")
	}
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		assignments = append(assignments, r.toDomain())
	}
	return assignments, nil
}

// UpsertExtension keys on the partial unique indexes so replacement is a
// single atomic conditional write; readers observe the old or the new
// deadline, never a partial record.
func (repo *assignmentRepository) UpsertExtension(ext assignment.Extension) (assignment.Extension, error) {
	const personalQ = `
		INSERT INTO assignment_extensions (assignment_id, user_id, extended_submission_deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assignment_id, user_id) WHERE user_id IS NOT NULL
		DO UPDATE SET extended_submission_deadline = EXCLUDED.extended_submission_deadline,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	const classWideQ = `
		INSERT INTO assignment_extensions (assignment_id, user_id, extended_submission_deadline, created_at, updated_at)
		VALUES ($1, NULL, $2, $3, $4)
		ON CONFLICT (assignment_id) WHERE user_id IS NULL
		DO UPDATE SET extended_submission_deadline = EXCLUDED.extended_submission_deadline,
		              updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	var err error
	if ext.IsClassWide() {
		err = repo.db.QueryRow(
			classWideQ,
			ext.AssignmentID, ext.ExtendedSubmissionDeadline, ext.CreatedAt, ext.UpdatedAt,
		).Scan(&ext.ID, &ext.CreatedAt)
	} else {
		err = repo.db.QueryRow(
			personalQ,
			ext.AssignmentID, ext.UserID, ext.ExtendedSubmissionDeadline, ext.CreatedAt, ext.UpdatedAt,
		).Scan(&ext.ID, &ext.CreatedAt)
	}
	if err != nil {
		return assignment.Extension{}, errors.Wrap(err, "upserting extension")
	}
	return ext, nil
}

func (repo *assignmentRepository) GetPersonalExtension(assignmentID, userID int64) (assignment.Extension, error) {
	var row extensionRow
	err := repo.db.Get(
		&row,
		"SELECT * FROM assignment_extensions WHERE assignment_id = $1 AND user_id = $2",
		assignmentID, userID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return assignment.Extension{}, assignment.ErrExtensionNotFound
		}
		return assignment.Extension{}, errors.Wrap(err, "getting personal extension")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) GetClassWideExtension(assignmentID int64) (assignment.Extension, error) {
	var row extensionRow
	err := repo.db.Get(
		&row,
		"SELECT * FROM assignment_extensions WHERE assignment_id = $1 AND user_id IS NULL",
		assignmentID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return assignment.Extension{}, assignment.ErrExtensionNotFound
		}
		return assignment.Extension{}, errors.Wrap(err, "getting class-wide extension")
	}
	return row.toDomain(), nil
}

func (repo *assignmentRepository) QueryExtensionsByAssignmentID(assignmentID int64) ([]assignment.Extension, error) {
	var rows []extensionRow
	err := repo.db.Select(
		&rows,
		"SELECT * FROM assignment_extensions WHERE assignment_id = $1 ORDER BY id",
		assignmentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying extensions")
	}
	exts := make([]assignment.Extension, 0, len(rows))
	for _, r := range rows {
		exts = append(exts, r.toDomain())
	}
	return exts, nil
}

func (repo *assignmentRepository) DeleteClassWideExtension(assignmentID int64) error {
	_, err := repo.db.Exec(
		"DELETE FROM assignment_extensions WHERE assignment_id = $1 AND user_id IS NULL",
		assignmentID,
	)
	return errors.Wrap(err, "deleting class-wide extension")
}

func (repo *assignmentRepository) DeletePersonalExtensions(assignmentID int64, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(
		"DELETE FROM assignment_extensions WHERE assignment_id = ? AND user_id IN (?)",
		assignmentID, userIDs,
	)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting personal extensions")
	}
	return nil
}

func (repo *assignmentRepository) CreateGroup(g assignment.Group) (assignment.Group, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return assignment.Group{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.Get(&g.ID, "INSERT INTO assignment_groups (assignment_id) VALUES ($1) RETURNING id", g.AssignmentID)
	if err != nil {
		return assignment.Group{}, errors.Wrap(err, "creating group")
	}
	for _, uid := range g.UserIDs {
		_, err = tx.Exec("INSERT INTO assignment_group_members (group_id, user_id) VALUES ($1, $2)", g.ID, uid)
		if err != nil {
			return assignment.Group{}, errors.Wrap(err, "adding group member")
		}
	}
	if err = tx.Commit(); err != nil {
		return assignment.Group{}, errors.Wrap(err, "committing group")
	}
	return g, nil
}

func (repo *assignmentRepository) QueryGroupsByAssignmentID(assignmentID int64) ([]assignment.Group, error) {
	var ids []int64
	err := repo.db.Select(&ids, "SELECT id FROM assignment_groups WHERE assignment_id = $1 ORDER BY id", assignmentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}

	groups := make([]assignment.Group, 0, len(ids))
	for _, id := range ids {
		var memberIDs []int64
		err = repo.db.Select(&memberIDs, "SELECT user_id FROM assignment_group_members WHERE group_id = $1 ORDER BY user_id", id)
		if err != nil {
			return nil, errors.Wrap(err, "querying group members")
		}
		groups = append(groups, assignment.Group{ID: id, AssignmentID: assignmentID, UserIDs: memberIDs})
	}
	return groups, nil
}
