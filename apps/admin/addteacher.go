package main

import (
	"time"

	"github.com/pkg/errors"

	"github.com/kazadi/darasa/core"
	"github.com/kazadi/darasa/core/user"
)

// addTeacher updates or creates a teacher account.
func (cli *commandLine) addTeacher(name, email, pwd string) error {
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Email:     email,
			CreatedAt: now,
		}
	}
	if name != "" {
		usr.Name = name
	} else if usr.Name == "" {
		usr.Name = user.NameFromEmail(email)
	}
	usr.IsTeacher = true
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == 0 {
		_, err = cli.usrRepo.CreateUser(usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(usr)
	}
	return err
}
