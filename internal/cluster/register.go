package cluster

import (
	"fmt"
	"net"
	"os"
	"strconv"

	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Registration descreve a instância anunciada no Consul.
type Registration struct {
	ServiceName string
	// Host é o nome resolvível da instância; vazio usa HOSTNAME ou os.Hostname().
	Host        string
	ServicePort int
	HealthPort  int
}

// newAgentRegistration monta o registro com um check HTTP em /health.
func newAgentRegistration(reg Registration) *consul.AgentServiceRegistration {
	return &consul.AgentServiceRegistration{
		ID:   fmt.Sprintf("%s-%s", reg.ServiceName, reg.Host),
		Name: reg.ServiceName,
		Port: reg.ServicePort,
		Tags: []string{"tcp", "websocket"},
		Meta: map[string]string{"health_port": strconv.Itoa(reg.HealthPort)},

		// O agente do Consul usa o endereço de quem registra; o check precisa de um host resolvível.
		Check: &consul.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s/health", net.JoinHostPort(reg.Host, strconv.Itoa(reg.HealthPort))),
			Timeout:                        "5s",
			Interval:                       "10s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterService registra a instância e devolve a função que a remove no desligamento.
func RegisterService(client *consul.Client, reg Registration) (deregister func() error, err error) {
	if reg.Host == "" {
		reg.Host = os.Getenv("HOSTNAME")
	}
	if reg.Host == "" {
		// Fallback caso a variável de ambiente não esteja setada
		if reg.Host, err = os.Hostname(); err != nil {
			return nil, errors.Wrap(err, "resolve hostname")
		}
	}

	registration := newAgentRegistration(reg)
	if err := client.Agent().ServiceRegister(registration); err != nil {
		return nil, errors.Wrapf(err, "register %s in consul", reg.ServiceName)
	}
	log.Info().Str("service", reg.ServiceName).Str("id", registration.ID).Msg("service registered in consul")

	return func() error {
		return client.Agent().ServiceDeregister(registration.ID)
	}, nil
}

// PortOf extrai a porta de um endereço "host:port" ou ":port".
func PortOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, errors.Wrapf(err, "parse address %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, errors.Wrapf(err, "parse port of %q", addr)
	}
	return port, nil
}
