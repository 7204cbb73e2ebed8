package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/recapcall/signal-server/internal/adapters/http"
	lk "github.com/recapcall/signal-server/internal/adapters/livekit"
	s3store "github.com/recapcall/signal-server/internal/adapters/s3"
	wssignal "github.com/recapcall/signal-server/internal/adapters/signal"
	"github.com/recapcall/signal-server/internal/app"
	"github.com/recapcall/signal-server/internal/config"
	"github.com/recapcall/signal-server/internal/core"
	"github.com/recapcall/signal-server/internal/egress"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	rooms := core.NewRoomRegistry()
	sessions := app.NewRegistry()
	relay := app.NewRelay(rooms, sessions)

	lkClient := lk.New(cfg.LiveKit.Host, cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	egressMgr := egress.NewManager(ctx, lkClient, lkClient, cfg.Egress.Interval, cfg.Egress.InitialDelay, cfg.Egress.OutputPrefix)

	recaps, err := s3store.NewRecapStore(ctx, cfg.S3.Region, cfg.S3.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("recap store init")
	}

	votes := app.NewVoteService(lkClient)
	meetings := app.NewSessionService(egressMgr, recaps)

	r := router.SetupRouter(ctx, cfg, router.Controllers{
		Signal:   wssignal.NewSignalWSController(relay, cfg),
		Token:    &router.TokenController{LiveKit: lkClient, Egress: egressMgr},
		Votes:    &router.VoteController{Votes: votes},
		Sessions: &router.SessionController{Sessions: meetings},
		Rooms:    rooms,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signal server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	egressMgr.StopAll()
	log.Info().Msg("Server exited gracefully")
}
