package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/quillreader/quill/pkg/blob"
	"github.com/quillreader/quill/pkg/config"
	"github.com/quillreader/quill/pkg/database"
	"github.com/quillreader/quill/pkg/migrations"
	"github.com/quillreader/quill/pkg/server"
	"github.com/quillreader/quill/pkg/version"
	"github.com/quillreader/quill/pkg/worker"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting quill", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	blobDir := filepath.Join(cfg.DataDir, "blob")
	if err := initDataDir(blobDir); err != nil {
		log.Err(err).Fatal("data directory error")
	}
	log.Info("data directory initialized", logger.Data{"path": cfg.DataDir})

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

	blobStore, err := blob.NewLocal(blobDir, server.BlobRoute)
	if err != nil {
		log.Err(err).Fatal("blob store error")
	}

	wrkr := worker.New(cfg, db, blobStore)

	srv, err := server.New(cfg, db, blobStore, wrkr.Parser())
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		log.Info("server started", logger.Data{"port": listener.Addr().(*net.TCPAddr).Port})

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

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}

// initDataDir creates the blob directory and verifies write permissions.
func initDataDir(blobDir string) error {
	if err := os.MkdirAll(blobDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create blob directory: %s", blobDir)
	}

	testFile := filepath.Join(blobDir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return errors.Wrapf(err, "blob directory is not writable: %s", blobDir)
	}
	f.Close()

	if err := os.Remove(testFile); err != nil {
		return errors.Wrapf(err, "failed to clean up write test file: %s", testFile)
	}

	return nil
}
