package main

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/pion/logging"

	"barsync/barcolor"
)

// firstFrameTimeout bounds how long a streaming capturer may take to deliver
// its first frame.
const firstFrameTimeout = 5 * time.Second

var errNoFrameYet = errors.New("no frame captured yet")

// FrameSource yields private snapshots of the screen.
type FrameSource interface {
	CaptureFrame() (*barcolor.FrameBuffer, error)
}

// Capturer is a FrameSource holding capture resources.
type Capturer interface {
	FrameSource
	Close() error
}

// x11Capturer grabs the display with kbinani/screenshot on every call.
type x11Capturer struct {
	display int
}

func (c x11Capturer) CaptureFrame() (*barcolor.FrameBuffer, error) {
	img, err := CaptureScreen(c.display)
	if err != nil {
		return nil, err
	}
	return barcolor.FromRGBA(img), nil
}

func (x11Capturer) Close() error { return nil }

// NewCapturer opens the requested capture method. "auto" tries
// PipeWire → FFmpeg → X11 and returns the first that works.
func NewCapturer(method string, display int, log logging.LeveledLogger) (Capturer, string, error) {
	switch method {
	case "pipewire":
		return newPipeWireCapturer(display)
	case "ffmpeg":
		return newFFmpegCapturer(display)
	case "x11":
		if _, err := displayBounds(display); err != nil {
			return nil, "", err
		}
		return x11Capturer{display: display}, "X11", nil
	case "auto":
	default:
		return nil, "", fmt.Errorf("unknown capture method %q", method)
	}

	c, name, err := newPipeWireCapturer(display)
	if err == nil {
		return c, name, nil
	}
	log.Debugf("pipewire capture unavailable: %v", err)

	c, name, err = newFFmpegCapturer(display)
	if err == nil {
		return c, name, nil
	}
	log.Debugf("ffmpeg capture unavailable: %v", err)

	return x11Capturer{display: display}, "X11", nil
}

// rawStream keeps the latest fixed-size frame read from a child process.
type rawStream struct {
	width, height int
	format        barcolor.PixelFormat

	done  chan struct{}
	ready chan struct{} // closed when first frame is available

	mu    sync.Mutex
	frame []byte
}

func newRawStream(width, height int, format barcolor.PixelFormat) *rawStream {
	return &rawStream{
		width:  width,
		height: height,
		format: format,
		done:   make(chan struct{}),
		ready:  make(chan struct{}),
	}
}

func (s *rawStream) frameSize() int {
	return s.width * s.height * s.format.BytesPerPixel()
}

func (s *rawStream) readFrames(r io.Reader) {
	defer close(s.done)
	size := s.frameSize()
	buf := make([]byte, size)
	first := true
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return
		}
		s.mu.Lock()
		if s.frame == nil {
			s.frame = make([]byte, size)
		}
		copy(s.frame, buf)
		s.mu.Unlock()
		if first {
			close(s.ready)
			first = false
		}
	}
}

// waitReady blocks until the first frame arrives, the reader stops, or timeout.
func (s *rawStream) waitReady(timeout time.Duration) error {
	select {
	case <-s.ready:
		return nil
	case <-s.done:
		return fmt.Errorf("stream ended before the first frame")
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for first frame")
	}
}

// snapshot copies the latest frame so sampling never races the reader.
func (s *rawStream) snapshot() (*barcolor.FrameBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, errNoFrameYet
	}
	pix := make([]byte, len(s.frame))
	copy(pix, s.frame)
	return &barcolor.FrameBuffer{
		Width:  s.width,
		Height: s.height,
		Stride: s.width,
		Format: s.format,
		Pix:    pix,
	}, nil
}

// hasExecutable reports whether the named program is on PATH.
func hasExecutable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
