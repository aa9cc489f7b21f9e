package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"slices"
	"strconv"

	consulapi "github.com/hashicorp/consul/api"
	"go.uber.org/zap"

	"petpal/internal/config"
)

// ErrNoInstances is returned when a service has no healthy instance
var ErrNoInstances = errors.New("no healthy instances")

// Instance is a discovered service instance
type Instance struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
}

// BaseURL returns the instance root URL. Instances tagged "https" are
// reached over TLS.
func (i Instance) BaseURL() string {
	scheme := "http"
	if slices.Contains(i.Tags, "https") {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(i.Address, strconv.Itoa(i.Port))
}

// Discover returns all healthy instances of service
func (c *Client) Discover(ctx context.Context, service string) ([]Instance, error) {
	opts := (&consulapi.QueryOptions{}).WithContext(ctx)
	entries, _, err := c.api.Health().Service(service, "", true, opts)
	if err != nil {
		return nil, fmt.Errorf("discover service %s: %w", service, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("service %s: %w", service, ErrNoInstances)
	}

	instances := make([]Instance, 0, len(entries))
	for _, entry := range entries {
		inst := Instance{
			ID:      entry.Service.ID,
			Name:    entry.Service.Service,
			Address: entry.Service.Address,
			Port:    entry.Service.Port,
			Tags:    entry.Service.Tags,
		}
		// service address falls back to the node address
		if inst.Address == "" && entry.Node != nil {
			inst.Address = entry.Node.Address
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// DiscoverOne picks a random healthy instance of service
func (c *Client) DiscoverOne(ctx context.Context, service string) (*Instance, error) {
	instances, err := c.Discover(ctx, service)
	if err != nil {
		return nil, err
	}
	inst := instances[rand.IntN(len(instances))]
	c.log.Debug("discovered backend instance",
		zap.String("service", service),
		zap.String("id", inst.ID),
		zap.String("address", inst.Address),
		zap.Int("port", inst.Port),
	)
	return &inst, nil
}

// ResolveBaseURL returns the configured backend URL, or one discovered
// through consul when only CONSUL_HTTP_ADDR is set.
func ResolveBaseURL(ctx context.Context, cfg *config.Config, log *zap.Logger) (string, error) {
	if cfg.APIBaseURL != "" {
		return cfg.APIBaseURL, nil
	}
	if cfg.ConsulAddr == "" {
		return "", errors.New("no backend configured: set PETPAL_API_BASE_URL or CONSUL_HTTP_ADDR")
	}

	client, err := NewClient(cfg.ConsulAddr, cfg.ConsulToken, log)
	if err != nil {
		return "", fmt.Errorf("create consul client: %w", err)
	}
	inst, err := client.DiscoverOne(ctx, cfg.APIService)
	if err != nil {
		return "", err
	}
	return inst.BaseURL(), nil
}
