package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/user"
)

type classRow struct {
	ID        int64     `db:"id"`
	Code      string    `db:"code"`
	Name      string    `db:"name"`
	Term      string    `db:"term"`
	Year      int       `db:"year"`
	StartDate time.Time `db:"start_date"`
	EndDate   time.Time `db:"end_date"`
	TeacherID int64     `db:"teacher_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r classRow) toDomain() school.Class {
	return school.Class{
		ID:        r.ID,
		Code:      r.Code,
		Name:      r.Name,
		Term:      r.Term,
		Year:      r.Year,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		TeacherID: r.TeacherID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func classesToDomain(rows []classRow) []school.Class {
	classes := make([]school.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.toDomain())
	}
	return classes
}

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(cls school.Class) (school.Class, error) {
	const q = `
		INSERT INTO classes (code, name, term, year, start_date, end_date, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := repo.db.Get(
		&cls.ID, q,
		cls.Code, cls.Name, cls.Term, cls.Year, cls.StartDate, cls.EndDate, cls.TeacherID, cls.CreatedAt, cls.UpdatedAt,
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "creating class")
	}
	return cls, nil
}

func (repo *schoolRepository) GetClassByID(id int64) (school.Class, error) {
	var row classRow
	if err := repo.db.Get(&row, "SELECT * FROM classes WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Class{}, school.ErrNotFound
		}
		return school.Class{}, errors.Wrap(err, "getting class by id")
	}
	return row.toDomain(), nil
}

func (repo *schoolRepository) QueryClassesByTeacherID(teacherID int64) ([]school.Class, error) {
	var rows []classRow
	err := repo.db.Select(&rows, "SELECT * FROM classes WHERE teacher_id = $1 ORDER BY id", teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classes by teacher")
	}
	return classesToDomain(rows), nil
}

func (repo *schoolRepository) QueryClassesByStudentID(studentID int64) ([]school.Class, error) {
	const q = `
		SELECT c.* FROM classes c
		JOIN class_students cs ON cs.class_id = c.id
		WHERE cs.user_id = $1
		ORDER BY c.id`
	var rows []classRow
	if err := repo.db.Select(&rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying classes by student")
	}
	return classesToDomain(rows), nil
}

func (repo *schoolRepository) QueryRoster(classID int64) ([]user.User, error) {
	const q = `
		SELECT u.* FROM users u
		JOIN class_students cs ON cs.user_id = u.id
		WHERE cs.class_id = $1
		ORDER BY u.id`
	var rows []userRow
	if err := repo.db.Select(&rows, q, classID); err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	return usersToDomain(rows), nil
}

func (repo *schoolRepository) AddStudents(classID int64, userIDs ...int64) error {
	const q = `
		INSERT INTO class_students (class_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (class_id, user_id) DO NOTHING`
	for _, uid := range userIDs {
		if _, err := repo.db.Exec(q, classID, uid); err != nil {
			return errors.Wrap(err, "enrolling student")
		}
	}
	return nil
}

func (repo *schoolRepository) RemoveStudent(classID, userID int64) error {
	_, err := repo.db.Exec("DELETE FROM class_students WHERE class_id = $1 AND user_id = $2", classID, userID)
	return errors.Wrap(err, "removing student")
}

func (repo *schoolRepository) IsEnrolled(classID, userID int64) (bool, error) {
	var enrolled bool
	err := repo.db.Get(
		&enrolled,
		"SELECT EXISTS(SELECT 1 FROM class_students WHERE class_id = $1 AND user_id = $2)",
		classID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking enrollment")
	}
	return enrolled, nil
}
