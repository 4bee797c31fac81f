package main

import (
	"os"

	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/shishobooks/lending/pkg/database"
	"github.com/shishobooks/lending/pkg/version"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	app := newApp(db)
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

func newApp(db *bun.DB) *cli.App {
	commands := migrationCommands(db)
	commands = append(commands, superuserCommand(db))

	return &cli.App{
		Name:        "manage",
		Usage:       "CLI to manage the lending database",
		Description: "Runs migrations and sets up accounts for local development",
		Version:     version.Version,
		Commands:    commands,
	}
}
