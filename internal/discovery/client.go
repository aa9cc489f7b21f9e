// Package discovery locates the backend through HashiCorp Consul when no
// base URL is configured.
package discovery

import (
	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"petpal/internal/logger"
)

// Client wraps the Consul API client
type Client struct {
	api *consulapi.Client
	log *zap.Logger
}

// NewClient creates a Consul client for the agent at addr. Token is the
// optional ACL token.
func NewClient(addr, token string, log *zap.Logger) (*Client, error) {
	config := consulapi.DefaultConfig()
	config.Address = addr

	if token != "" {
		config.Token = token
	}

	client, err := consulapi.NewClient(config)
	if err != nil {
		return nil, err
	}

	return &Client{api: client, log: logger.OrNop(log)}, nil
}
