package dummydb

import (
	"sync"

	"github.com/kazadi/darasa/core/assignment"
	"github.com/kazadi/darasa/core/school"
	"github.com/kazadi/darasa/core/submission"
	"github.com/kazadi/darasa/core/user"
)

type (
	DB struct {
		user       *userTable
		school     *schoolTable
		assignment *assignmentTable
		submission *submissionTable
	}

	userTable struct {
		sync.RWMutex
		seq   int64
		table map[int64]*user.User
	}

	schoolTable struct {
		sync.RWMutex
		seq   int64
		table map[int64]*school.Class
		// enrollment: classID -> set of userIDs
		enrollment map[int64]map[int64]struct{}
	}

	assignmentTable struct {
		sync.RWMutex
		seq        int64
		extSeq     int64
		groupSeq   int64
		table      map[int64]*assignment.Assignment
		extensions map[int64]*assignment.Extension
		groups     map[int64]*assignment.Group
	}

	submissionTable struct {
		sync.RWMutex
		seq        int64
		fileSeq    int64
		commentSeq int64
		table      map[int64]*submission.Submission
		comments   map[int64]*submission.Comment
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[int64]*user.User)},
		school: &schoolTable{
			table:      make(map[int64]*school.Class),
			enrollment: make(map[int64]map[int64]struct{}),
		},
		assignment: &assignmentTable{
			table:      make(map[int64]*assignment.Assignment),
			extensions: make(map[int64]*assignment.Extension),
			groups:     make(map[int64]*assignment.Group),
		},
		submission: &submissionTable{
			table:    make(map[int64]*submission.Submission),
			comments: make(map[int64]*submission.Comment),
		},
	}
	return db, nil
}
