package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/kazadi/darasa/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  addteacher -email EMAIL [-name NAME] - create or update a teacher account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := flag.NewFlagSet("addteacher", flag.ExitOnError)
	addTeacherEmail := addTeacherCmd.String("email", "", "The teacher's email. The password will be prompted next.")
	addTeacherName := addTeacherCmd.String("name", "", "The teacher's display name; derived from the email when empty.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addteacher":
		if err := addTeacherCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTeacherEmail == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addTeacherCmd.Usage()
			return errHelp
		}
		return cli.addTeacher(*addTeacherName, *addTeacherEmail, string(pwd))
	default:
		cli.printUsage()
		return errHelp
	}
}
