package dummydb

import (
	"sort"

	"github.com/kazadi/darasa/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func (repo *assignmentRepository) CreateAssignment(a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	a.ID = repo.db.seq
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *assignmentRepository) GetAssignmentByID(id int64) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func (repo *assignmentRepository) QueryAssignmentsByClassID(classID int64) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var assignments []assignment.Assignment
	for _, a := range repo.db.table {
		if a.ClassID == classID {
			assignments = append(assignments, *a)
		}
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].ID < assignments[j].ID })
	return assignments, nil
}

// findExtension returns the live record matching ext's target, or nil.
// Callers must hold the lock.
func (repo *assignmentRepository) findExtension(assignmentID int64, userID int64, classWide bool) *assignment.Extension {
	for _, ext := range repo.db.extensions {
		if ext.AssignmentID != assignmentID {
			continue
		}
		if classWide && ext.IsClassWide() {
			return ext
		}
		if !classWide && ext.UserID.Valid && ext.UserID.Int64 == userID {
			return ext
		}
	}
	return nil
}

func (repo *assignmentRepository) UpsertExtension(ext assignment.Extension) (assignment.Extension, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if existing := repo.findExtension(ext.AssignmentID, ext.UserID.Int64, ext.IsClassWide()); existing != nil {
		existing.ExtendedSubmissionDeadline = ext.ExtendedSubmissionDeadline
		existing.UpdatedAt = ext.UpdatedAt
		return *existing, nil
	}

	repo.db.extSeq++
	ext.ID = repo.db.extSeq
	repo.db.extensions[ext.ID] = &ext
	return ext, nil
}

func (repo *assignmentRepository) GetPersonalExtension(assignmentID, userID int64) (assignment.Extension, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ext := repo.findExtension(assignmentID, userID, false); ext != nil {
		return *ext, nil
	}
	return assignment.Extension{}, assignment.ErrExtensionNotFound
}

func (repo *assignmentRepository) GetClassWideExtension(assignmentID int64) (assignment.Extension, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ext := repo.findExtension(assignmentID, 0, true); ext != nil {
		return *ext, nil
	}
	return assignment.Extension{}, assignment.ErrExtensionNotFound
}

func (repo *assignmentRepository) QueryExtensionsByAssignmentID(assignmentID int64) ([]assignment.Extension, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var exts []assignment.Extension
	for _, ext := range repo.db.extensions {
		if ext.AssignmentID == assignmentID {
			exts = append(exts, *ext)
		}
	}
	sort.Slice(exts, func(i, j int) bool { return exts[i].ID < exts[j].ID })
	return exts, nil
}

func (repo *assignmentRepository) DeleteClassWideExtension(assignmentID int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ext := repo.findExtension(assignmentID, 0, true); ext != nil {
		delete(repo.db.extensions, ext.ID)
	}
	return nil
}

func (repo *assignmentRepository) DeletePersonalExtensions(assignmentID int64, userIDs ...int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, uid := range userIDs {
		if ext := repo.findExtension(assignmentID, uid, false); ext != nil {
			delete(repo.db.extensions, ext.ID)
		}
	}
	return nil
}

func (repo *assignmentRepository) CreateGroup(g assignment.Group) (assignment.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.groupSeq++
	g.ID = repo.db.groupSeq
	repo.db.groups[g.ID] = &g
	return g, nil
}

func (repo *assignmentRepository) QueryGroupsByAssignmentID(assignmentID int64) ([]assignment.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var groups []assignment.Group
	for _, g := range repo.db.groups {
		if g.AssignmentID == assignmentID {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}
