package cluster

import (
	"math/rand"
	"net"
	"strconv"

	consul "github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
)

// ErrNoHealthyInstance é retornado quando o Consul não conhece nenhuma instância saudável.
var ErrNoHealthyInstance = errors.New("no healthy instance")

// Discover devolve o endereço "host:port" de uma instância saudável qualquer de serviceName.
func Discover(client *consul.Client, serviceName string) (string, error) {
	entries, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", errors.Wrapf(err, "query consul for %s", serviceName)
	}
	return pickHealthy(entries, rand.Intn)
}

func pickHealthy(entries []*consul.ServiceEntry, intn func(int) int) (string, error) {
	if len(entries) == 0 {
		return "", ErrNoHealthyInstance
	}

	s := entries[intn(len(entries))]
	addr := s.Service.Address
	if addr == "" && s.Node != nil {
		addr = s.Node.Address
	}
	return net.JoinHostPort(addr, strconv.Itoa(s.Service.Port)), nil
}
