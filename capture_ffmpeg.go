package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"barsync/barcolor"
)

// ffmpegCapturer reads full-resolution RGB565 frames from ffmpeg's x11grab.
type ffmpegCapturer struct {
	cancel context.CancelFunc
	cmd    *exec.Cmd
	stream *rawStream
}

func newFFmpegCapturer(display int) (Capturer, string, error) {
	if !hasExecutable("ffmpeg") {
		return nil, "", fmt.Errorf("ffmpeg not found")
	}

	x11 := os.Getenv("DISPLAY")
	if x11 == "" {
		return nil, "", fmt.Errorf("DISPLAY not set")
	}

	bounds, err := displayBounds(display)
	if err != nil {
		return nil, "", err
	}
	w, h := bounds.Dx(), bounds.Dy()

	ctx, cancel := context.WithCancel(context.Background())

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-nostdin",
		"-loglevel", "error",
		"-f", "x11grab",
		"-framerate", "10",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-i", fmt.Sprintf("%s.0+%d,%d", x11, bounds.Min.X, bounds.Min.Y),
		"-f", "rawvideo",
		"-pix_fmt", "rgb565le",
		"pipe:1",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, "", fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, "", fmt.Errorf("starting ffmpeg: %w", err)
	}

	c := &ffmpegCapturer{
		cancel: cancel,
		cmd:    cmd,
		stream: newRawStream(w, h, barcolor.FormatRGB565),
	}

	go c.stream.readFrames(stdout)

	// Wait for the first frame so CaptureFrame is immediately usable.
	if err := c.stream.waitReady(firstFrameTimeout); err != nil {
		_ = c.Close()
		return nil, "", fmt.Errorf("ffmpeg: %w", err)
	}

	return c, "FFmpeg", nil
}

func (c *ffmpegCapturer) CaptureFrame() (*barcolor.FrameBuffer, error) {
	return c.stream.snapshot()
}

func (c *ffmpegCapturer) Close() error {
	c.cancel()
	<-c.stream.done
	return c.cmd.Wait()
}
