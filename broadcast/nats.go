package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// NATSChannel broadcasts snapshots on a core NATS subject. The connection
// is opened with NoEcho, so a context never hears itself.
type NATSChannel struct {
	nc      *nats.Conn
	subject string
}

// DialNATS connects to url and returns a channel publishing on subject.
func DialNATS(url, subject, clientName string, log zerolog.Logger) (*NATSChannel, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.NoEcho(),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Error().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSChannel{
		nc:      nc,
		subject: subject,
	}, nil
}

func (c *NATSChannel) Publish(_ context.Context, payload []byte) error {
	if err := c.nc.Publish(c.subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", c.subject, err)
	}
	return nil
}

func (c *NATSChannel) Subscribe(handler func([]byte)) (func(), error) {
	sub, err := c.nc.Subscribe(c.subject, func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", c.subject, err)
	}

	return func() {
		_ = sub.Unsubscribe()
	}, nil
}

func (c *NATSChannel) Close() error {
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	return nil
}
