package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/transport"
	"github.com/vovakirdan/wirechat-client/internal/transport/memory"
	natstransport "github.com/vovakirdan/wirechat-client/internal/transport/nats"
	"github.com/vovakirdan/wirechat-client/internal/transport/stomp"
)

// newDialer picks the transport named by cfg and returns it with its default topics.
// For the memory transport the relay is returned as well.
func newDialer(cfg config.Config, logger *zerolog.Logger) (transport.Dialer, transport.Topics, *memory.Relay, error) {
	switch cfg.Transport {
	case transport.KindSTOMP:
		return &stomp.Dialer{
			URL:         cfg.ServerURL,
			DialTimeout: cfg.DialTimeout,
			HeartBeat:   cfg.HeartBeat,
			Buffer:      cfg.InboundBuffer,
			Logger:      logger,
		}, stomp.DefaultTopics, nil, nil
	case transport.KindNATS:
		return &natstransport.Dialer{
			URL:         cfg.NATSURL,
			DialTimeout: cfg.DialTimeout,
			Buffer:      cfg.InboundBuffer,
			Logger:      logger,
		}, natstransport.DefaultTopics, nil, nil
	case transport.KindMemory:
		relay := memory.NewRelay(memory.DefaultTopics, cfg.InboundBuffer, logger)
		return relay, memory.DefaultTopics, relay, nil
	default:
		return nil, transport.Topics{}, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// resolveTopics fills empty configured names from the transport defaults.
func resolveTopics(configured config.Topics, defaults transport.Topics) transport.Topics {
	pick := func(v, def string) string {
		if v != "" {
			return v
		}
		return def
	}
	return transport.Topics{
		Public:      pick(configured.Public, defaults.Public),
		Private:     pick(configured.Private, defaults.Private),
		Login:       pick(configured.Login, defaults.Login),
		Chat:        pick(configured.Chat, defaults.Chat),
		PrivateChat: pick(configured.PrivateChat, defaults.PrivateChat),
	}
}
