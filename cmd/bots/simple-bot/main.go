// cmd/bots/simple-bot/main.go
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rpsls/internal/client"
	"rpsls/internal/cluster"
	"rpsls/internal/config"
	"rpsls/internal/game/move"
)

// ============================================================================
// Constantes de Configuração Padrão
// ============================================================================
const (
	defaultServerAddr  = "localhost:12345"
	defaultServiceName = "rpsls-server"
	defaultBots        = 2
	defaultRounds      = 5
	defaultBotTimeout  = time.Minute
)

type botConfig struct {
	ServerAddr string
	Bots       int
	Rounds     int
	Timeout    time.Duration
}

func loadConfig() (*botConfig, error) {
	_ = godotenv.Load()

	cfg := &botConfig{ServerAddr: os.Getenv("SERVER_ADDR"), Timeout: defaultBotTimeout}
	var err error
	if cfg.Bots, err = envInt("BOTS", defaultBots); err != nil {
		return nil, err
	}
	if cfg.Rounds, err = envInt("ROUNDS", defaultRounds); err != nil {
		return nil, err
	}

	// Sem endereço explícito, pergunta ao Consul por uma instância saudável.
	if cfg.ServerAddr == "" {
		if consulAddr := os.Getenv("CONSUL_HTTP_ADDR"); consulAddr != "" {
			service := os.Getenv("RPSLS_SERVICE_NAME")
			if service == "" {
				service = defaultServiceName
			}
			consul, err := cluster.NewConsulClient(consulAddr)
			if err != nil {
				return nil, err
			}
			if cfg.ServerAddr, err = cluster.Discover(consul, service); err != nil {
				return nil, err
			}
			log.Info().Str("addr", cfg.ServerAddr).Msg("server discovered via consul")
		}
	}
	if cfg.ServerAddr == "" {
		cfg.ServerAddr = defaultServerAddr
	}
	return cfg, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, errors.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func main() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := config.SetupLogger(level, "console"); err != nil {
		log.Fatal().Err(err).Msg("logger setup failed")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("bot config failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for i := 1; i <= cfg.Bots; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			botLog := log.With().Str("bot", name).Logger()
			if err := runBot(ctx, cfg, name, botLog); err != nil {
				botLog.Error().Err(err).Msg("bot FAIL")
				return
			}
			botLog.Info().Msg("bot SUCCESS")
		}(fmt.Sprintf("bot-%d-%d", os.Getpid(), i))
	}
	wg.Wait()
}

// runBot joga cfg.Rounds rodadas com jogadas aleatórias.
func runBot(ctx context.Context, cfg *botConfig, name string, botLog zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c, err := client.Dial(ctx, cfg.ServerAddr, name)
	if err != nil {
		return err
	}
	defer c.Close()

	wins := 0
	for round := 1; round <= cfg.Rounds; {
		opponent, err := c.AwaitGameStart(ctx)
		if err != nil {
			return errors.Wrapf(err, "waiting for round %d", round)
		}

		m := move.All()[rand.Intn(len(move.All()))]
		result, err := c.SubmitMove(ctx, m)
		var serverErr *client.ServerError
		if errors.As(err, &serverErr) {
			// Adversário saiu no meio da rodada; o servidor nos devolve à fila.
			botLog.Warn().Str("opponent", opponent).Str("reason", serverErr.Message).Msg("round aborted")
			continue
		}
		if err != nil {
			return err
		}

		if result.Won(name) {
			wins++
		}
		botLog.Info().
			Int("round", result.Round).
			Str("opponent", opponent).
			Str("move", m.String()).
			Str("against", result.OpponentMove.String()).
			Msg(result.Description)

		if round < cfg.Rounds {
			if err := c.SignalReady(); err != nil {
				return err
			}
		}
		round++
	}

	botLog.Info().Int("wins", wins).Int("rounds", cfg.Rounds).Msg("done playing")
	return nil
}
