package cluster

import (
	"strings"

	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewConsulClient cria um cliente Consul, tentando cada endereço da lista (separada por vírgulas)
// até encontrar um agente que responda com um líder.
func NewConsulClient(addrs string) (*consul.Client, error) {
	for _, node := range strings.Split(addrs, ",") {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}

		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			log.Warn().Err(err).Str("consul", node).Msg("consul client failed")
			continue
		}

		// Teste rápido de saúde
		if _, err := client.Status().Leader(); err != nil {
			log.Warn().Err(err).Str("consul", node).Msg("consul node did not answer")
			continue
		}

		log.Info().Str("consul", node).Msg("connected to consul")
		return client, nil
	}

	return nil, errors.Errorf("no consul node available in %q", addrs)
}
