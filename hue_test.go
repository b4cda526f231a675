package main

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestDecodePairResponse(t *testing.T) {
	creds, err := decodePairResponse(strings.NewReader(`[{"success":{"username":"u1","clientkey":"00ff"}}]`))
	if err != nil {
		t.Fatalf("decodePairResponse: %v", err)
	}
	if creds.Username != "u1" || creds.Clientkey != "00ff" {
		t.Errorf("got %+v", creds)
	}

	_, err = decodePairResponse(strings.NewReader(`[{"error":{"type":101,"description":"link button not pressed"}}]`))
	if !errors.Is(err, ErrLinkButtonNotPressed) {
		t.Errorf("expected ErrLinkButtonNotPressed, got %v", err)
	}

	_, err = decodePairResponse(strings.NewReader(`[{"error":{"type":7,"description":"invalid value"}}]`))
	if err == nil || !strings.Contains(err.Error(), "bridge error 7") {
		t.Errorf("expected bridge error 7, got %v", err)
	}

	for _, body := range []string{`[]`, `[{}]`, `not json`} {
		if _, err := decodePairResponse(strings.NewReader(body)); err == nil {
			t.Errorf("%s: expected error", body)
		}
	}
}

func TestDecodeEntertainmentAreas(t *testing.T) {
	body := `{"data":[{
		"id":"a1b2",
		"metadata":{"name":"Desk"},
		"configuration_type":"screen",
		"status":"inactive",
		"channels":[
			{"channel_id":0,"position":{"x":-0.5,"y":0.8,"z":0.6}},
			{"channel_id":1,"position":{"x":0.5,"y":0.8,"z":-0.4}}
		],
		"light_services":[{"rid":"x"},{"rid":"y"}]
	}]}`

	areas, err := decodeEntertainmentAreas(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decodeEntertainmentAreas: %v", err)
	}
	if len(areas) != 1 {
		t.Fatalf("expected 1 area, got %d", len(areas))
	}
	a := areas[0]
	if a.ID != "a1b2" || a.Name != "Desk" || a.Type != "screen" || a.Lights != 2 {
		t.Errorf("unexpected area %+v", a)
	}
	if len(a.Channels) != 2 || !a.Channels[0].Upper() || a.Channels[1].Upper() {
		t.Errorf("unexpected channels %+v", a.Channels)
	}
	if s := a.String(); s != "Desk (2 channels: 1 status, 1 navigation; 2 lights)" {
		t.Errorf("unexpected String() %q", s)
	}
}

func TestBridgeURL(t *testing.T) {
	if got := bridgeURL(net.ParseIP("192.168.1.2"), "/api"); got != "https://192.168.1.2/api" {
		t.Errorf("got %s", got)
	}
	if got := bridgeURL(net.ParseIP("fe80::1"), "/api"); got != "https://[fe80::1]/api" {
		t.Errorf("got %s", got)
	}
}

func bridgeEntry(id, ip string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{
		HostName: "hue.local.",
		Port:     443,
		Text:     []string{"bridgeid=" + id, "modelid=BSB002", "junk"},
	}
	e.Instance = "Hue Bridge - " + id
	if ip != "" {
		e.AddrIPv4 = []net.IP{net.ParseIP(ip)}
	}
	return e
}

func TestParseBridge(t *testing.T) {
	b := parseBridge(bridgeEntry("001788fffe", "10.0.0.5"))
	if b.ID != "001788fffe" || b.Model != "BSB002" || b.Port != 443 || !b.IP.Equal(net.ParseIP("10.0.0.5")) {
		t.Errorf("unexpected bridge %+v", b)
	}
}

func TestCollectBridges_Dedupes(t *testing.T) {
	entries := make(chan *zeroconf.ServiceEntry, 4)
	entries <- bridgeEntry("a", "10.0.0.1")
	entries <- bridgeEntry("a", "10.0.0.1")
	entries <- bridgeEntry("b", "")
	entries <- bridgeEntry("c", "10.0.0.3")
	close(entries)

	got := collectBridges(context.Background(), entries)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("expected bridges a and c, got %+v", got)
	}
}
