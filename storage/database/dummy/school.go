package dummydb

import (
	"sort"

	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/user"
)

type schoolRepository struct {
	db    *schoolTable
	users *userTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db.school, users: db.user}
}

func (repo *schoolRepository) query() []school.Class {
	classes := make([]school.Class, 0, len(repo.db.table))
	for _, c := range repo.db.table {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].ID < classes[j].ID })
	return classes
}

func (repo *schoolRepository) CreateClass(cls school.Class) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.seq++
	cls.ID = repo.db.seq
	repo.db.table[cls.ID] = &cls
	repo.db.enrollment[cls.ID] = make(map[int64]struct{})
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(id int64) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.table[id]; ok {
		return *cls, nil
	}
	return school.Class{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryClassesByTeacherID(teacherID int64) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classes []school.Class
	for _, cls := range repo.query() {
		if cls.TeacherID == teacherID {
			classes = append(classes, cls)
		}
	}
	return classes, nil
}

func (repo *schoolRepository) QueryClassesByStudentID(studentID int64) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classes []school.Class
	for _, cls := range repo.query() {
		if _, ok := repo.db.enrollment[cls.ID][studentID]; ok {
			classes = append(classes, cls)
		}
	}
	return classes, nil
}

func (repo *schoolRepository) QueryRoster(classID int64) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrolled, ok := repo.db.enrollment[classID]
	if !ok {
		return nil, school.ErrNotFound
	}

	repo.users.RLock()
	defer repo.users.RUnlock()

	roster := make([]user.User, 0, len(enrolled))
	for uid := range enrolled {
		if usr, ok := repo.users.table[uid]; ok {
			roster = append(roster, *usr)
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return roster, nil
}

func (repo *schoolRepository) AddStudents(classID int64, userIDs ...int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enrolled, ok := repo.db.enrollment[classID]
	if !ok {
		return school.ErrNotFound
	}
	for _, uid := range userIDs {
		enrolled[uid] = struct{}{}
	}
	return nil
}

func (repo *schoolRepository) RemoveStudent(classID, userID int64) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	enrolled, ok := repo.db.enrollment[classID]
	if !ok {
		return school.ErrNotFound
	}
	delete(enrolled, userID)
	return nil
}

func (repo *schoolRepository) IsEnrolled(classID, userID int64) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrolled, ok := repo.db.enrollment[classID]
	if !ok {
		return false, school.ErrNotFound
	}
	_, in := enrolled[userID]
	return in, nil
}
