package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

type dockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// ContainerInfo is the panel's view of a local container.
type ContainerInfo struct {
	ID      string    `json:"id"`
	Names   []string  `json:"names"`
	Image   string    `json:"image"`
	State   string    `json:"state"`
	Status  string    `json:"status"`
	Ports   []string  `json:"ports"`
	Created time.Time `json:"created"`
}

type DockerService struct {
	api dockerAPI
}

// NewDockerService connects using DOCKER_HOST and friends from the environment.
func NewDockerService() (*DockerService, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerService{api: cli}, nil
}

func (s *DockerService) ListContainers(ctx context.Context) ([]ContainerInfo, error) {
	list, err := s.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	out := make([]ContainerInfo, 0, len(list))
	for _, c := range list {
		names := make([]string, 0, len(c.Names))
		for _, n := range c.Names {
			names = append(names, strings.TrimPrefix(n, "/"))
		}
		ports := make([]string, 0, len(c.Ports))
		for _, p := range c.Ports {
			if p.PublicPort != 0 {
				ports = append(ports, fmt.Sprintf("%d:%d/%s", p.PublicPort, p.PrivatePort, p.Type))
			} else {
				ports = append(ports, fmt.Sprintf("%d/%s", p.PrivatePort, p.Type))
			}
		}
		id := c.ID
		if len(id) > 12 {
			id = id[:12]
		}
		out = append(out, ContainerInfo{
			ID:      id,
			Names:   names,
			Image:   c.Image,
			State:   string(c.State),
			Status:  c.Status,
			Ports:   ports,
			Created: time.Unix(c.Created, 0).UTC(),
		})
	}
	return out, nil
}
