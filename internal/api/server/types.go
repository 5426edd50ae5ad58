package server

import (
	"net"
	"strconv"
	"time"

	"github.com/bz888/gramfix/internal/api/server/client"
)

// Config is everything the gateway needs to start.
type Config struct {
	Host string
	Port int

	Provider        client.Provider
	Model           string
	BaseURL         string
	UpstreamTimeout time.Duration

	MaxBodyBytes int64
}

func (c Config) clientConfig() client.ClientConfig {
	return client.ClientConfig{
		Provider: c.Provider,
		Model:    c.Model,
		BaseURL:  c.BaseURL,
		Timeout:  c.UpstreamTimeout,
	}
}

// Addr is the host:port the gateway listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
