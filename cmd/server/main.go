// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"rpsls/internal/admin"
	"rpsls/internal/cluster"
	"rpsls/internal/config"
	"rpsls/internal/events"
	"rpsls/internal/network"
	"rpsls/internal/secure"
	"rpsls/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	// 1. CARREGA A CONFIGURAÇÃO
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	if err := config.SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	log.Info().
		Str("tcp", cfg.TCPAddr).
		Str("http", cfg.HTTPAddr).
		Int("max_players", cfg.MaxPlayers).
		Msg("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. INICIA A LÓGICA DO JOGO
	keys, err := secure.GenerateKeyPair()
	if err != nil {
		return err
	}

	health := cluster.NewHealthAggregator()
	health.AddCheck("registry", func() error {
		if ctx.Err() != nil {
			return errors.New("shutting down")
		}
		return nil
	})

	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			return err
		}
		health.AddCheck("nats", nats.Healthy)
		publisher = nats
		log.Info().Str("url", cfg.NATSURL).Msg("publishing game events to nats")
	}
	defer publisher.Close()

	registry := session.NewRegistry(
		session.WithMaxPlayers(cfg.MaxPlayers),
		session.WithPublisher(publisher),
	)
	server := network.NewServer(session.NewGameHandler(registry, keys))
	server.Start(ctx)

	// 3. SERVIDOR HTTP: diagnóstico e websocket
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           admin.New(cfg.ServiceName, registry, health, server),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 2)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.Wrap(err, "http server")
		}
	}()
	go func() {
		if err := server.ListenAndServe(ctx, cfg.TCPAddr); err != nil {
			errs <- err
		}
	}()

	// 4. REGISTRA O SERVIÇO NO CONSUL
	if cfg.ConsulAddr != "" {
		deregister, err := registerInConsul(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("consul registration skipped")
		} else {
			defer func() {
				if err := deregister(); err != nil {
					log.Warn().Err(err).Msg("consul deregistration failed")
				}
			}()
		}
	}

	// 5. ESPERA O SINAL DE PARADA
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errs:
		stop()
		log.Error().Err(err).Msg("listener failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		log.Warn().Msg("connections still open after shutdown timeout")
	}
	return nil
}

func registerInConsul(cfg *config.Config) (func() error, error) {
	client, err := cluster.NewConsulClient(cfg.ConsulAddr)
	if err != nil {
		return nil, err
	}
	servicePort, err := cluster.PortOf(cfg.TCPAddr)
	if err != nil {
		return nil, err
	}
	healthPort, err := cluster.PortOf(cfg.HTTPAddr)
	if err != nil {
		return nil, err
	}
	return cluster.RegisterService(client, cluster.Registration{
		ServiceName: cfg.ServiceName,
		ServicePort: servicePort,
		HealthPort:  healthPort,
	})
}
