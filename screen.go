package main

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// displayBounds returns the bounds of the given display.
func displayBounds(display int) (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	if display >= n {
		return image.Rectangle{}, fmt.Errorf("display index %d out of range (have %d displays)", display, n)
	}
	return screenshot.GetDisplayBounds(display), nil
}

// CaptureScreen captures the given display and returns the image.
func CaptureScreen(display int) (*image.RGBA, error) {
	bounds, err := displayBounds(display)
	if err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capturing screen: %w", err)
	}
	return img, nil
}
