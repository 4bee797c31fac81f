package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/lending/pkg/migrations"
	"github.com/shishobooks/lending/pkg/users"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

const (
	defaultSuperuserUsername = "admin"
	defaultSuperuserPassword = "admin"
)

// passwordReader reads a password without echoing it. It's swapped out in
// tests.
var passwordReader = func(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}
	return string(b), nil
}

func superuserCommand(db *bun.DB) *cli.Command {
	return &cli.Command{
		Name:  "create-local-superuser",
		Usage: "create a staff superuser for local development, or reset its password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "username",
				Value: defaultSuperuserUsername,
				Usage: "username of the superuser",
			},
			&cli.BoolFlag{
				Name:  "prompt",
				Usage: "read the password from the terminal instead of using the default",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			log := logger.FromContext(ctx)

			if _, err := migrations.BringUpToDate(ctx, db); err != nil {
				return err
			}

			password := defaultSuperuserPassword
			if c.Bool("prompt") {
				p, err := passwordReader(c.App.Writer)
				if err != nil {
					return err
				}
				password = strings.TrimSpace(p)
				if password == "" {
					return errors.New("password can't be empty")
				}
			}

			username := c.String("username")
			user, created, err := users.NewService(db).EnsureSuperuser(ctx, username, password)
			if err != nil {
				return err
			}

			if created {
				log.Info("superuser created", logger.Data{"user_id": user.ID, "username": username})
				fmt.Fprintf(c.App.Writer, "Created superuser %q\n", username)
			} else {
				log.Info("superuser password reset", logger.Data{"user_id": user.ID, "username": username})
				fmt.Fprintf(c.App.Writer, "Superuser %q already exists, password updated\n", username)
			}
			return nil
		},
	}
}
