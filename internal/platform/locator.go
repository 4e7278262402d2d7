package platform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidLocator = errors.New("platform: instance locator must be of the form version:cluster:instance_id")
	ErrInvalidKey     = errors.New("platform: key must be of the form key_id:key_secret")
)

const defaultHostSuffix = "pusherplatform.io"

// Locator identifies one tenant instance in one cluster.
type Locator struct {
	Version    string
	Cluster    string
	InstanceID string
}

func ParseLocator(raw string) (Locator, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return Locator{}, fmt.Errorf("%w: %q", ErrInvalidLocator, raw)
	}
	for _, p := range parts {
		if p == "" {
			return Locator{}, fmt.Errorf("%w: %q", ErrInvalidLocator, raw)
		}
	}

	return Locator{
		Version:    parts[0],
		Cluster:    parts[1],
		InstanceID: parts[2],
	}, nil
}

func (l Locator) Host() string {
	return l.Cluster + "." + defaultHostSuffix
}

func (l Locator) String() string {
	return l.Version + ":" + l.Cluster + ":" + l.InstanceID
}

// Key is an instance key split into its public and secret halves.
type Key struct {
	ID     string
	Secret string
}

func ParseKey(raw string) (Key, error) {
	id, secret, ok := strings.Cut(raw, ":")
	if !ok || id == "" || secret == "" {
		return Key{}, ErrInvalidKey
	}

	return Key{ID: id, Secret: secret}, nil
}
