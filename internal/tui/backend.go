package tui

import (
	"context"

	"github.com/creamcroissant/vpnadmin/internal/client"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

// Backend is what the dashboard needs from the server.
type Backend interface {
	Servers(ctx context.Context, p client.ListParams) ([]repository.Server, error)
	Configs(ctx context.Context, p client.ListParams) ([]repository.Config, error)
	PremiumUsers(ctx context.Context, p client.ListParams) ([]repository.PremiumUser, error)
	Delete(ctx context.Context, tab Tab, id string) (client.Deletion, error)
	Tail(ctx context.Context, handle func(service.AdEvent)) error
}

type clientBackend struct {
	c *client.Client
}

// NewClientBackend adapts an API client to the dashboard.
func NewClientBackend(c *client.Client) Backend {
	return clientBackend{c: c}
}

func (b clientBackend) Servers(ctx context.Context, p client.ListParams) ([]repository.Server, error) {
	items, _, err := b.c.Servers().List(ctx, p)
	return items, err
}

func (b clientBackend) Configs(ctx context.Context, p client.ListParams) ([]repository.Config, error) {
	items, _, err := b.c.Configs().List(ctx, p)
	return items, err
}

func (b clientBackend) PremiumUsers(ctx context.Context, p client.ListParams) ([]repository.PremiumUser, error) {
	items, _, err := b.c.PremiumUsers().List(ctx, p)
	return items, err
}

func (b clientBackend) Delete(ctx context.Context, tab Tab, id string) (client.Deletion, error) {
	switch tab {
	case TabServers:
		return b.c.Servers().Delete(ctx, id)
	case TabConfigs:
		return b.c.Configs().Delete(ctx, id)
	case TabPremiumUsers:
		return b.c.PremiumUsers().Delete(ctx, id)
	}
	return client.Deletion{}, nil
}

func (b clientBackend) Tail(ctx context.Context, handle func(service.AdEvent)) error {
	return b.c.Tail(ctx, handle, client.TailOptions{})
}
