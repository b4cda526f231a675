package main

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"
)

// Bridge represents a discovered Philips Hue Bridge on the network.
type Bridge struct {
	ID       string
	Model    string
	Name     string
	IP       net.IP
	Port     int
	Hostname string
}

func (b Bridge) String() string {
	return fmt.Sprintf("%s (%s) at %s:%d", b.Name, b.ID, b.IP, b.Port)
}

// DiscoverBridges browses the network for Hue bridges via mDNS until ctx is
// done and returns every bridge seen, deduplicated by bridge ID.
func DiscoverBridges(ctx context.Context) ([]Bridge, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("creating mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan []Bridge, 1)
	go func() { found <- collectBridges(ctx, entries) }()

	if err := resolver.Browse(ctx, "_hue._tcp", "local.", entries); err != nil {
		return nil, fmt.Errorf("browsing for Hue bridges: %w", err)
	}
	<-ctx.Done()
	return <-found, nil
}

// collectBridges gathers entries until the channel closes or ctx is done.
func collectBridges(ctx context.Context, entries <-chan *zeroconf.ServiceEntry) []Bridge {
	var bridges []Bridge
	seen := make(map[string]bool)
	for {
		var entry *zeroconf.ServiceEntry
		select {
		case e, ok := <-entries:
			if !ok {
				return bridges
			}
			entry = e
		case <-ctx.Done():
			return bridges
		}

		b := parseBridge(entry)
		if b.IP == nil {
			continue
		}
		if b.ID != "" {
			if seen[b.ID] {
				continue
			}
			seen[b.ID] = true
		}
		bridges = append(bridges, b)
	}
}

func parseBridge(entry *zeroconf.ServiceEntry) Bridge {
	b := Bridge{
		Name:     entry.Instance,
		Port:     entry.Port,
		Hostname: entry.HostName,
	}

	if len(entry.AddrIPv4) > 0 {
		b.IP = entry.AddrIPv4[0]
	} else if len(entry.AddrIPv6) > 0 {
		b.IP = entry.AddrIPv6[0]
	}

	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "bridgeid":
			b.ID = value
		case "modelid":
			b.Model = value
		}
	}

	return b
}
