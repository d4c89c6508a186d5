package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kazadi/darasa/core/submission"
)

type (
	submissionRow struct {
		ID                           int64     `db:"id"`
		AssignmentID                 int64     `db:"assignment_id"`
		UserID                       int64     `db:"user_id"`
		SubmittedAt                  time.Time `db:"submitted_at"`
		IsCurrent                    bool      `db:"is_current"`
		SubmitterHasReviewedComments bool      `db:"submitter_has_reviewed_comments"`
	}

	fileRow struct {
		ID           int64  `db:"id"`
		SubmissionID int64  `db:"submission_id"`
		Name         string `db:"name"`
		StorageKey   string `db:"storage_key"`
		Content      string `db:"content"`
	}

	commentRow struct {
		ID           int64      `db:"id"`
		SubmissionID int64      `db:"submission_id"`
		CommentType  string     `db:"comment_type"`
		FileID       null.Int64 `db:"file_id"`
		StartLine    int        `db:"start_line"`
		EndLine      int        `db:"end_line"`
		StartOffset  int        `db:"start_offset"`
		EndOffset    int        `db:"end_offset"`
		ParentID     null.Int64 `db:"parent_id"`
		UserID       int64      `db:"user_id"`
		Comment      string     `db:"comment"`
		CreatedAt    time.Time  `db:"created_at"`
	}
)

func (r submissionRow) toDomain() submission.Submission {
	return submission.Submission{
		ID:                           r.ID,
		AssignmentID:                 r.AssignmentID,
		UserID:                       r.UserID,
		SubmittedAt:                  r.SubmittedAt,
		IsCurrent:                    r.IsCurrent,
		SubmitterHasReviewedComments: r.SubmitterHasReviewedComments,
	}
}

func (r commentRow) toDomain() submission.Comment {
	return submission.Comment{
		ID:           r.ID,
		SubmissionID: r.SubmissionID,
		CommentType:  r.CommentType,
		FileID:       r.FileID,
		StartLine:    r.StartLine,
		EndLine:      r.EndLine,
		StartOffset:  r.StartOffset,
		EndOffset:    r.EndOffset,
		ParentID:     r.ParentID,
		UserID:       r.UserID,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
	}
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) loadFiles(sub *submission.Submission) error {
	var rows []fileRow
	err := repo.db.Select(&rows, "SELECT * FROM submission_files WHERE submission_id = $1 ORDER BY id", sub.ID)
	if err != nil {
		return errors.Wrap(err, "querying submission files")
	}
	for _, r := range rows {
		sub.Files = append(sub.Files, submission.File{
			ID:           r.ID,
			SubmissionID: r.SubmissionID,
			Name:         r.Name,
			StorageKey:   r.StorageKey,
			Content:      r.Content,
		})
	}
	return nil
}

func (repo *submissionRepository) CreateSubmission(sub submission.Submission) (submission.Submission, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `
		INSERT INTO submissions (assignment_id, user_id, submitted_at, is_current, submitter_has_reviewed_comments)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err = tx.Get(&sub.ID, q, sub.AssignmentID, sub.UserID, sub.SubmittedAt, sub.IsCurrent, sub.SubmitterHasReviewedComments)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "creating submission")
	}

	for i := range sub.Files {
		f := &sub.Files[i]
		f.SubmissionID = sub.ID
		err = tx.Get(
			&f.ID,
			"INSERT INTO submission_files (submission_id, name, storage_key, content) VALUES ($1, $2, $3, $4) RETURNING id",
			f.SubmissionID, f.Name, f.StorageKey, f.Content,
		)
		if err != nil {
			return submission.Submission{}, errors.Wrap(err, "creating submission file")
		}
	}
	if err = tx.Commit(); err != nil {
		return submission.Submission{}, errors.Wrap(err, "committing submission")
	}
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(id int64) (submission.Submission, error) {
	var row submissionRow
	if err := repo.db.Get(&row, "SELECT * FROM submissions WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting submission by id")
	}
	sub := row.toDomain()
	if err := repo.loadFiles(&sub); err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) querySubmissions(q string, args ...interface{}) ([]submission.Submission, error) {
	var rows []submissionRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		sub := r.toDomain()
		if err := repo.loadFiles(&sub); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (repo *submissionRepository) QuerySubmissionsByAssignmentID(assignmentID int64) ([]submission.Submission, error) {
	return repo.querySubmissions("SELECT * FROM submissions WHERE assignment_id = $1 ORDER BY id", assignmentID)
}

func (repo *submissionRepository) QuerySubmissionsByAssignmentAndUser(assignmentID, userID int64) ([]submission.Submission, error) {
	return repo.querySubmissions(
		"SELECT * FROM submissions WHERE assignment_id = $1 AND user_id = $2 ORDER BY id",
		assignmentID, userID,
	)
}

func (repo *submissionRepository) GetCurrentSubmission(assignmentID, userID int64) (submission.Submission, error) {
	var row submissionRow
	err := repo.db.Get(
		&row,
		"SELECT * FROM submissions WHERE assignment_id = $1 AND user_id = $2 AND is_current",
		assignmentID, userID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrap(err, "getting current submission")
	}
	sub := row.toDomain()
	if err := repo.loadFiles(&sub); err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) ClearCurrentSubmission(assignmentID, userID int64) error {
	_, err := repo.db.Exec(
		"UPDATE submissions SET is_current = FALSE WHERE assignment_id = $1 AND user_id = $2 AND is_current",
		assignmentID, userID,
	)
	return errors.Wrap(err, "clearing current submission")
}

func (repo *submissionRepository) CreateComment(c submission.Comment) (submission.Comment, error) {
	const q = `
		INSERT INTO submission_comments (submission_id, comment_type, file_id, start_line, end_line, start_offset, end_offset, parent_id, user_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := repo.db.Get(
		&c.ID, q,
		c.SubmissionID, c.CommentType, c.FileID, c.StartLine, c.EndLine, c.StartOffset, c.EndOffset, c.ParentID, c.UserID, c.Comment, c.CreatedAt,
	)
	if err != nil {
		return submission.Comment{}, errors.Wrap(err, "creating comment")
	}
	return c, nil
}

func (repo *submissionRepository) GetCommentByID(id int64) (submission.Comment, error) {
	var row commentRow
	if err := repo.db.Get(&row, "SELECT * FROM submission_comments WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return submission.Comment{}, submission.ErrNotFound
		}
		return submission.Comment{}, errors.Wrap(err, "getting comment by id")
	}
	return row.toDomain(), nil
}

func (repo *submissionRepository) QueryCommentsBySubmissionID(submissionID int64) ([]submission.Comment, error) {
	var rows []commentRow
	err := repo.db.Select(
		&rows,
		"SELECT * FROM submission_comments WHERE submission_id = $1 ORDER BY id",
		submissionID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying comments")
	}
	comments := make([]submission.Comment, 0, len(rows))
	for _, r := range rows {
		comments = append(comments, r.toDomain())
	}
	return comments, nil
}
