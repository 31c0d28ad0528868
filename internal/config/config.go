package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// ============================================================================
// Constantes de Configuração Padrão
// ============================================================================
const (
	defaultTCPAddr     = ":12345"
	defaultHTTPAddr    = ":8080"
	defaultMaxPlayers  = 64
	defaultLogLevel    = "info"
	defaultLogFormat   = "json"
	defaultServiceName = "rpsls-server"
)

// Config armazena todas as configurações do servidor. Porta e limite de jogadores
// são fixados na inicialização.
type Config struct {
	TCPAddr     string
	HTTPAddr    string
	MaxPlayers  int
	LogLevel    string
	LogFormat   string
	NATSURL     string
	ConsulAddr  string
	ServiceName string
}

// Load lê um .env opcional e depois as variáveis de ambiente.
func Load() (*Config, error) {
	// Um .env ausente não é erro; variáveis já definidas no ambiente têm precedência.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv carrega a configuração apenas das variáveis de ambiente.
func FromEnv() (*Config, error) {
	maxPlayers, err := getInt("RPSLS_MAX_PLAYERS", defaultMaxPlayers)
	if err != nil {
		return nil, err
	}
	if maxPlayers < 2 {
		return nil, errors.Errorf("RPSLS_MAX_PLAYERS must be at least 2, got %d", maxPlayers)
	}

	return &Config{
		TCPAddr:     getEnv("RPSLS_TCP_ADDR", defaultTCPAddr),
		HTTPAddr:    getEnv("RPSLS_HTTP_ADDR", defaultHTTPAddr),
		MaxPlayers:  maxPlayers,
		LogLevel:    getEnv("LOG_LEVEL", defaultLogLevel),
		LogFormat:   getEnv("LOG_FORMAT", defaultLogFormat),
		NATSURL:     os.Getenv("NATS_URL"),
		ConsulAddr:  os.Getenv("CONSUL_HTTP_ADDR"),
		ServiceName: getEnv("RPSLS_SERVICE_NAME", defaultServiceName),
	}, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return n, nil
}
