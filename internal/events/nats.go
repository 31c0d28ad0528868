package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NATSPublisher publica cada evento em "rpsls.<tipo>".
type NATSPublisher struct {
	nc  *nats.Conn
	now func() time.Time
}

// NewNATSPublisher conecta em url. A reconexão fica a cargo do cliente NATS.
func NewNATSPublisher(url, name string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats at %s", url)
	}
	return &NATSPublisher{nc: nc, now: time.Now}, nil
}

func (p *NATSPublisher) Publish(ev Event) error {
	if ev.At.IsZero() {
		ev.At = p.now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := p.nc.Publish(SubjectPrefix+ev.Type, data); err != nil {
		return errors.Wrapf(err, "publish %s", ev.Type)
	}
	return nil
}

// Healthy é usado pelo /health.
func (p *NATSPublisher) Healthy() error {
	if !p.nc.IsConnected() {
		return errors.Errorf("nats status %s", p.nc.Status())
	}
	return nil
}

// Close descarrega o buffer pendente antes de fechar.
func (p *NATSPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		log.Warn().Err(err).Msg("nats drain failed")
		p.nc.Close()
	}
}
