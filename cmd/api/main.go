package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/lending/pkg/auth"
	"github.com/shishobooks/lending/pkg/config"
	"github.com/shishobooks/lending/pkg/database"
	"github.com/shishobooks/lending/pkg/migrations"
	"github.com/shishobooks/lending/pkg/server"
	"github.com/shishobooks/lending/pkg/version"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting lending api", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	sessions, err := auth.NewSessionStore(ctx, cfg)
	if err != nil {
		log.Err(err).Fatal("session store error")
	}
	log.Info("session store ready", logger.Data{"redis": cfg.SessionsEnabled()})

	srv, err := server.New(cfg, db, sessions)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	if closer, ok := sessions.(*auth.RedisSessions); ok {
		if err := closer.Close(); err != nil {
			log.Err(err).Error("session store close error")
		}
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
