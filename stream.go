package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pion/dtls/v2"
	"github.com/pion/logging"

	"barsync/barcolor"
)

// keepaliveInterval must stay well below the bridge's 10 s stream timeout.
const keepaliveInterval = time.Second

// ChannelColor is the color for one entertainment channel.
type ChannelColor struct {
	ID    uint8
	Color barcolor.Color
}

// Streamer mirrors bar colors onto a Hue entertainment area over DTLS.
// Upper channels follow the status bar, the rest the navigation bar.
type Streamer struct {
	conn     net.Conn
	areaID   string
	channels []Channel
	log      logging.LeveledLogger

	mu   sync.Mutex
	seq  uint8
	last BarColors

	stop chan struct{}
	done chan struct{}
}

// NewStreamer establishes a DTLS connection to the Hue bridge for entertainment streaming.
func NewStreamer(ip net.IP, creds BridgeCredentials, area EntertainmentArea, lf logging.LoggerFactory) (*Streamer, error) {
	psk, err := hex.DecodeString(creds.Clientkey)
	if err != nil {
		return nil, fmt.Errorf("decoding clientkey: %w", err)
	}

	addr := &net.UDPAddr{IP: ip, Port: 2100}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := dtls.DialWithContext(ctx, "udp", addr, &dtls.Config{
		PSK: func(hint []byte) ([]byte, error) {
			return psk, nil
		},
		PSKIdentityHint:    []byte(creds.Username),
		CipherSuites:       []dtls.CipherSuiteID{dtls.TLS_PSK_WITH_AES_128_GCM_SHA256},
		InsecureSkipVerify: true,
		LoggerFactory:      lf,
	})
	if err != nil {
		return nil, fmt.Errorf("DTLS handshake: %w", err)
	}

	return newStreamer(conn, area, lf.NewLogger("hue")), nil
}

func newStreamer(conn net.Conn, area EntertainmentArea, log logging.LeveledLogger) *Streamer {
	s := &Streamer{
		conn:     conn,
		areaID:   area.ID,
		channels: area.Channels,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.keepalive()
	return s
}

// BarColorsChanged sends the new colors right away.
func (s *Streamer) BarColorsChanged(c BarColors) {
	s.mu.Lock()
	s.last = c
	s.mu.Unlock()
	if err := s.send(); err != nil {
		s.log.Warnf("sending colors: %v", err)
	}
}

// keepalive resends the last colors so the bridge keeps the area streaming.
func (s *Streamer) keepalive() {
	defer close(s.done)
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := s.send(); err != nil {
				s.log.Debugf("keepalive: %v", err)
			}
		}
	}
}

func (s *Streamer) send() error {
	s.mu.Lock()
	msg := BuildHueStreamMessage(s.areaID, channelColors(s.channels, s.last), s.seq)
	s.seq++
	s.mu.Unlock()

	if _, err := s.conn.Write(msg); err != nil {
		return fmt.Errorf("writing to DTLS: %w", err)
	}
	return nil
}

// Close stops the keepalive and closes the DTLS connection.
func (s *Streamer) Close() error {
	close(s.stop)
	err := s.conn.Close()
	<-s.done
	return err
}

// channelColors assigns the status bar color to upper channels and the
// navigation bar color to the others.
func channelColors(channels []Channel, c BarColors) []ChannelColor {
	out := make([]ChannelColor, len(channels))
	for i, ch := range channels {
		col := c.NavigationBar
		if ch.Upper() {
			col = c.StatusBar
		}
		out[i] = ChannelColor{ID: ch.ID, Color: col}
	}
	return out
}

// BuildHueStreamMessage constructs a HueStream v2 binary message.
func BuildHueStreamMessage(areaID string, channels []ChannelColor, seq uint8) []byte {
	// Header: 52 bytes + 7 bytes per channel
	msg := make([]byte, 52+7*len(channels))

	copy(msg[0:9], "HueStream")
	msg[9] = 0x02  // major version
	msg[10] = 0x00 // minor version
	msg[11] = seq
	// 12-13 reserved, 14 color space (0x00 = RGB), 15 reserved

	// Entertainment configuration ID (36 ASCII chars, UUID format)
	copy(msg[16:52], areaID)

	offset := 52
	for _, ch := range channels {
		msg[offset] = ch.ID
		// 8-bit channels widen to 16 bits by byte repetition (v*257).
		msg[offset+1], msg[offset+2] = ch.Color.R(), ch.Color.R()
		msg[offset+3], msg[offset+4] = ch.Color.G(), ch.Color.G()
		msg[offset+5], msg[offset+6] = ch.Color.B(), ch.Color.B()
		offset += 7
	}

	return msg
}
