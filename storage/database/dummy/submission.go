package dummydb

import (
	"sort"

	"github.com/kazadi/darasa/core/submission"
)

type submissionRepository struct {
	db *submissionTable
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db.submission}
}

func (repo *submissionRepository) CreateSubmission(sub submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	sub.ID = repo.db.seq
	for i := range sub.Files {
		repo.db.fileSeq++
		sub.Files[i].ID = repo.db.fileSeq
		sub.Files[i].SubmissionID = sub.ID
	}
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(id int64) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) queryByAssignment(assignmentID int64, userID int64, anyUser bool) []submission.Submission {
	var subs []submission.Submission
	for _, sub := range repo.db.table {
		if sub.AssignmentID != assignmentID {
			continue
		}
		if anyUser || sub.UserID == userID {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs
}

func (repo *submissionRepository) QuerySubmissionsByAssignmentID(assignmentID int64) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryByAssignment(assignmentID, 0, true), nil
}

func (repo *submissionRepository) QuerySubmissionsByAssignmentAndUser(assignmentID, userID int64) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.queryByAssignment(assignmentID, userID, false), nil
}

func (repo *submissionRepository) GetCurrentSubmission(assignmentID, userID int64) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.db.table {
		if sub.AssignmentID == assignmentID && sub.UserID == userID && sub.IsCurrent {
			return *sub, nil
		}
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) ClearCurrentSubmission(assignmentID, userID int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, sub := range repo.db.table {
		if sub.AssignmentID == assignmentID && sub.UserID == userID && sub.IsCurrent {
			sub.IsCurrent = false
		}
	}
	return nil
}

func (repo *submissionRepository) CreateComment(c submission.Comment) (submission.Comment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.commentSeq++
	c.ID = repo.db.commentSeq
	repo.db.comments[c.ID] = &c
	return c, nil
}

func (repo *submissionRepository) GetCommentByID(id int64) (submission.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.comments[id]; ok {
		return *c, nil
	}
	return submission.Comment{}, submission.ErrNotFound
}

func (repo *submissionRepository) QueryCommentsBySubmissionID(submissionID int64) ([]submission.Comment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var comments []submission.Comment
	for _, c := range repo.db.comments {
		if c.SubmissionID == submissionID {
			comments = append(comments, *c)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	return comments, nil
}
