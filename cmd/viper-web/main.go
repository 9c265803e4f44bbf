// Command viper-web serves the HTTP façade over the doorbell protocol:
// poll, door listing (sqlite-cached) and door opening, plus Prometheus
// metrics.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/openviper/viperclient/internal/config"
	"github.com/openviper/viperclient/internal/discovery"
	"github.com/openviper/viperclient/internal/web"
	"github.com/openviper/viperclient/viper"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Warn().Err(err).Msg("env file")
	}
	cfg := config.Load()
	if cfg.DoorbellIP == "" {
		log.Fatal().Msg("DOORBELL_IP is not set")
	}

	var store *web.DoorStore
	if cfg.DoorStorePath != "" {
		var err error
		store, err = web.OpenDoorStore(cfg.DoorStorePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DoorStorePath).Msg("door store")
		}
		defer store.Close()
	}

	dial := func() (web.Doorbell, error) {
		client, err := viper.Connect(cfg.DoorbellIP, cfg.DoorbellPort)
		if err != nil {
			return nil, err
		}
		client.HandshakeRetries = cfg.HandshakeRetries
		return client, nil
	}
	poll := func() bool {
		return discovery.Poll(cfg.DoorbellIP, cfg.DoorbellPort, time.Second)
	}

	srv := web.New(cfg, dial, poll, store)
	httpSrv := &http.Server{Addr: cfg.WebAddr, Handler: srv.Handler()}

	ln, err := net.Listen("tcp", cfg.WebAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.WebAddr).Msg("listen")
	}
	// every request may dial the doorbell, which tolerates few sessions
	ln = netutil.LimitListener(ln, cfg.MaxConns)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.WebAddr).Str("doorbell", cfg.DoorbellIP).Msg("serving")
		if err := httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server")
	}
	log.Info().Msg("shut down")
}
