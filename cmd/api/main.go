package main

import (
	"context"
	"net"
	"net/http"

	"github.com/lectiohq/lectio/pkg/config"
	"github.com/lectiohq/lectio/pkg/database"
	"github.com/lectiohq/lectio/pkg/enrich"
	"github.com/lectiohq/lectio/pkg/migrations"
	"github.com/lectiohq/lectio/pkg/server"
	"github.com/lectiohq/lectio/pkg/version"
	"github.com/lectiohq/lectio/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting lectio", logger.Data{"version": version.String()})

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

	src, err := enrich.NewSources(cfg)
	if err != nil {
		log.Err(err).Fatal("metadata sources error")
	}
	enricher := enrich.NewFromConfig(cfg, db, src)

	wrkr := worker.New(cfg, db, enricher)

	srv, err := server.New(cfg, db, enricher, src.OpenLibrary)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", srv.Addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}
		log.Info("server started", logger.Data{"addr": listener.Addr().String()})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = src.Close()
	if err != nil {
		log.Err(err).Error("metadata cache close error")
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
