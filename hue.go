package main

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

var hueClient = &http.Client{
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// ErrLinkButtonNotPressed is returned by PairBridge when the user has not yet
// pressed the link button on the Hue bridge.
var ErrLinkButtonNotPressed = errors.New("link button not pressed")

// ErrUnauthorized is returned when the bridge rejects the API credentials.
var ErrUnauthorized = errors.New("unauthorized")

// PairBridge registers a new application with the Hue bridge at the given IP.
// The user must press the link button on the bridge before calling this.
func PairBridge(ip net.IP) (username, clientkey string, err error) {
	body := strings.NewReader(`{"devicetype":"barsync#desktop","generateclientkey":true}`)
	resp, err := hueClient.Post(bridgeURL(ip, "/api"), "application/json", body)
	if err != nil {
		return "", "", fmt.Errorf("pairing request: %w", err)
	}
	defer resp.Body.Close()

	creds, err := decodePairResponse(resp.Body)
	if err != nil {
		return "", "", err
	}
	return creds.Username, creds.Clientkey, nil
}

func decodePairResponse(r io.Reader) (BridgeCredentials, error) {
	var result []pairResponse
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return BridgeCredentials{}, fmt.Errorf("decoding pair response: %w", err)
	}
	if len(result) == 0 {
		return BridgeCredentials{}, fmt.Errorf("empty pair response")
	}

	switch res := result[0]; {
	case res.Error != nil && res.Error.Type == 101:
		return BridgeCredentials{}, ErrLinkButtonNotPressed
	case res.Error != nil:
		return BridgeCredentials{}, fmt.Errorf("bridge error %d: %s", res.Error.Type, res.Error.Description)
	case res.Success == nil:
		return BridgeCredentials{}, fmt.Errorf("unexpected pair response: no success or error")
	default:
		return BridgeCredentials{Username: res.Success.Username, Clientkey: res.Success.Clientkey}, nil
	}
}

// ActivateArea tells the bridge to start entertainment mode for the given area.
func ActivateArea(ip net.IP, username, areaID string) error {
	return setAreaAction(ip, username, areaID, "start")
}

// DeactivateArea tells the bridge to stop entertainment mode for the given area.
func DeactivateArea(ip net.IP, username, areaID string) error {
	return setAreaAction(ip, username, areaID, "stop")
}

func setAreaAction(ip net.IP, username, areaID, action string) error {
	url := bridgeURL(ip, "/clip/v2/resource/entertainment_configuration/"+areaID)
	body := strings.NewReader(fmt.Sprintf(`{"action":%q}`, action))

	req, err := http.NewRequest(http.MethodPut, url, body)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("hue-application-key", username)
	req.Header.Set("Content-Type", "application/json")

	resp, err := hueClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s entertainment area: %w", action, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%s entertainment area: HTTP %d", action, resp.StatusCode)
	}
	return nil
}

// Channel is one light segment of an entertainment area.
type Channel struct {
	ID uint8
	// Z is the vertical position in the room, -1 (floor) to 1 (ceiling).
	Z float64
}

// Upper reports whether the channel sits in the upper half of the room and
// therefore mirrors the status bar.
func (c Channel) Upper() bool { return c.Z >= 0 }

// EntertainmentArea represents a Hue entertainment configuration.
type EntertainmentArea struct {
	ID       string
	Name     string
	Type     string
	Status   string
	Channels []Channel
	Lights   int
}

func (a EntertainmentArea) String() string {
	upper := 0
	for _, ch := range a.Channels {
		if ch.Upper() {
			upper++
		}
	}
	return fmt.Sprintf("%s (%d channels: %d status, %d navigation; %d lights)",
		a.Name, len(a.Channels), upper, len(a.Channels)-upper, a.Lights)
}

// FetchEntertainmentAreas retrieves entertainment configurations from the bridge.
func FetchEntertainmentAreas(ip net.IP, username string) ([]EntertainmentArea, error) {
	url := bridgeURL(ip, "/clip/v2/resource/entertainment_configuration")

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("hue-application-key", username)

	resp, err := hueClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching entertainment areas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}
	return decodeEntertainmentAreas(resp.Body)
}

func decodeEntertainmentAreas(r io.Reader) ([]EntertainmentArea, error) {
	var result entertainmentResponse
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding entertainment response: %w", err)
	}

	areas := make([]EntertainmentArea, len(result.Data))
	for i, d := range result.Data {
		channels := make([]Channel, len(d.Channels))
		for j, ch := range d.Channels {
			channels[j] = Channel{ID: ch.ChannelID, Z: ch.Position.Z}
		}
		areas[i] = EntertainmentArea{
			ID:       d.ID,
			Name:     d.Metadata.Name,
			Type:     d.ConfigurationType,
			Status:   d.Status,
			Channels: channels,
			Lights:   len(d.LightServices),
		}
	}
	return areas, nil
}

func bridgeURL(ip net.IP, path string) string {
	host := ip.String()
	if ip.To4() == nil {
		host = "[" + host + "]"
	}
	return "https://" + host + path
}

// JSON mapping structs

type pairResponse struct {
	Success *pairSuccess `json:"success"`
	Error   *pairError   `json:"error"`
}

type pairSuccess struct {
	Username  string `json:"username"`
	Clientkey string `json:"clientkey"`
}

type pairError struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

type entertainmentResponse struct {
	Data []entertainmentData `json:"data"`
}

type entertainmentData struct {
	ID                string            `json:"id"`
	Metadata          entertainmentMeta `json:"metadata"`
	ConfigurationType string            `json:"configuration_type"`
	Status            string            `json:"status"`
	Channels          []channelData     `json:"channels"`
	LightServices     []json.RawMessage `json:"light_services"`
}

type entertainmentMeta struct {
	Name string `json:"name"`
}

type channelData struct {
	ChannelID uint8           `json:"channel_id"`
	Position  channelPosition `json:"position"`
}

type channelPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}
