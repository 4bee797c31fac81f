package main

import (
	"fmt"
	"strings"

	"github.com/shishobooks/lending/pkg/migrations"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func migrationCommands(db *bun.DB) []*cli.Command {
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	return []*cli.Command{
		{
			Name:  "init",
			Usage: "create migration tables",
			Action: func(c *cli.Context) error {
				return migrator.Init(c.Context)
			},
		},
		{
			Name:  "migrate",
			Usage: "migrate database",
			Action: func(c *cli.Context) error {
				if err := migrator.Init(c.Context); err != nil {
					return err
				}

				group, err := migrator.Migrate(c.Context)
				if err != nil {
					return err
				}

				if group.ID == 0 {
					fmt.Fprintf(c.App.Writer, "There are no new migrations to run\n")
					return nil
				}

				fmt.Fprintf(c.App.Writer, "Migrated to %s\n", group)
				return nil
			},
		},
		{
			Name:  "rollback",
			Usage: "rollback the last migration group",
			Action: func(c *cli.Context) error {
				group, err := migrator.Rollback(c.Context)
				if err != nil {
					return err
				}

				if group.ID == 0 {
					fmt.Fprintf(c.App.Writer, "There are no groups to roll back\n")
					return nil
				}

				fmt.Fprintf(c.App.Writer, "Rolled back %s\n", group)
				return nil
			},
		},
		{
			Name:      "create",
			Usage:     "create Go migration",
			ArgsUsage: "<name words...>",
			Action: func(c *cli.Context) error {
				name := strings.Join(c.Args().Slice(), "_")
				mf, err := migrator.CreateGoMigration(
					c.Context,
					name,
					migrate.WithGoTemplate(migrationTemplate),
				)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Created migration %s (%s)\n", mf.Name, mf.Path)

				return nil
			},
		},
		{
			Name:  "status",
			Usage: "print migrations status",
			Action: func(c *cli.Context) error {
				ms, err := migrator.MigrationsWithStatus(c.Context)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Migrations: %s\n", ms)
				fmt.Fprintf(c.App.Writer, "Unapplied migrations: %s\n", ms.Unapplied())
				fmt.Fprintf(c.App.Writer, "Last migration group: %s\n", ms.LastGroup())

				return nil
			},
		},
	}
}

const migrationTemplate = `package %s

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
`
