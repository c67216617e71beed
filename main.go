package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-financer/internal/account"
	"ai-financer/internal/ai"
	"ai-financer/internal/cache"
	"ai-financer/internal/config"
	"ai-financer/internal/database"
	"ai-financer/internal/logger"
	"ai-financer/internal/remote"
	"ai-financer/internal/router"
	"ai-financer/internal/session"
	"ai-financer/internal/syncer"
)

func main() {
	// load configuration; config.yaml is optional
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg, closer, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer closer.Close()

	// on-device cache
	localDB, err := database.InitLocal(cfg.Local)
	if err != nil {
		lg.Fatal().Err(err).Msg("init local database")
	}
	defer database.Close(localDB)
	if err := database.MigrateLocal(localDB); err != nil {
		lg.Fatal().Err(err).Msg("migrate local database")
	}

	// shared store for accounts and records
	remoteDB, err := database.InitRemote(cfg.Remote)
	if err != nil {
		lg.Fatal().Err(err).Msg("init remote database")
	}
	defer database.Close(remoteDB)
	if err := database.MigrateRemote(remoteDB); err != nil {
		lg.Fatal().Err(err).Msg("migrate remote database")
	}

	localCache := cache.New(localDB, cfg.Local.EncryptionKey, lg)
	accounts := account.NewService(remoteDB, cfg.JWT, lg)
	sess := session.New(localCache, accounts, lg)

	queue := syncer.NewQueue(0, lg)
	books := syncer.New(localCache, remote.NewGormStore(remoteDB), queue, lg)
	books.OpenTimeout = time.Duration(cfg.Remote.TimeoutSeconds) * time.Second
	books.Attach(sess)

	r := router.SetupRouter(cfg.Server.Mode, router.Deps{
		Sessions:  sess,
		Books:     books,
		Accounts:  accounts,
		Profiles:  accounts,
		Bills:     ai.NewBillExtractor(cfg.AI, lg),
		Assistant: ai.NewAdvisor(cfg.AI, lg),
		Log:       lg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// requests answer "pending" until this finishes
	go sess.Resolve(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		lg.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("run server")
			stop()
		}
	}()

	<-ctx.Done()
	lg.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error().Err(err).Msg("shutdown server")
	}
	if err := books.Close(shutdownCtx); err != nil {
		lg.Warn().Err(err).Msg("pending remote pushes dropped")
	}
}
