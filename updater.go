package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"

	"barsync/barcolor"
)

const (
	// IconDark is a translucent black for icons on bright, stable bars.
	IconDark barcolor.Color = 0x95000000
	// IconLight is used everywhere else.
	IconLight barcolor.Color = 0xFFFFFFFF

	statusFilterOffset  = -10
	brightnessThreshold = 0.7
)

// BarColors is the override state pushed to listeners. A zero color means
// "no override" and tells the sink to fall back to its default.
type BarColors struct {
	StatusBar         barcolor.Color
	StatusBarIcon     barcolor.Color
	NavigationBar     barcolor.Color
	NavigationBarIcon barcolor.Color
}

// Listener receives BarColors whenever they change.
type Listener interface {
	BarColorsChanged(BarColors)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(BarColors)

func (f ListenerFunc) BarColorsChanged(c BarColors) { f(c) }

// BarGeometry is the bar layout in logical pixels.
type BarGeometry struct {
	StatusBarHeight              int
	NavigationBarHeight          int
	NavigationBarHeightLandscape int
	// XFromRightSide is the right probe inset; -1 derives it so the probe
	// clears a landscape navigation bar.
	XFromRightSide int
}

// Params returns the probe parameters for rotation r.
func (g BarGeometry) Params(r barcolor.Rotation) barcolor.Params {
	nav := g.NavigationBarHeight
	if r.Landscape() {
		nav = g.NavigationBarHeightLandscape
	}
	inset := g.XFromRightSide
	if inset < 0 {
		inset = 1
		if r.Landscape() {
			inset += nav
		}
	}
	return barcolor.Params{
		Rotation:            r,
		StatusBarHeight:     g.StatusBarHeight,
		NavigationBarHeight: nav,
		XFromRightSide:      inset,
	}
}

// UpdaterSettings are the runtime-adjustable switches of an Updater.
type UpdaterSettings struct {
	Rotation      barcolor.Rotation
	StatusBar     bool
	NavigationBar bool
	StatusFilter  bool
	Paused        bool
}

// Updater samples the screen periodically and fans bar color changes out to
// listeners. All methods are safe for concurrent use.
type Updater struct {
	src      FrameSource
	log      logging.LeveledLogger
	interval time.Duration
	geometry BarGeometry

	// notify serializes deliveries so a listener never sees an older state
	// after a newer one.
	notify sync.Mutex

	mu        sync.Mutex
	settings  UpdaterSettings
	colors    BarColors
	listeners map[int]Listener
	nextID    int
}

// NewUpdater creates an Updater reading frames from src.
func NewUpdater(src FrameSource, cfg *Config, log logging.LeveledLogger) *Updater {
	return &Updater{
		src:      src,
		log:      log,
		interval: cfg.Interval,
		geometry: cfg.Geometry(),
		settings: UpdaterSettings{
			Rotation:      cfg.rotation,
			StatusBar:     cfg.StatusBar,
			NavigationBar: cfg.NavigationBar,
			StatusFilter:  cfg.StatusFilter,
		},
		listeners: make(map[int]Listener),
	}
}

// Run ticks until ctx is cancelled. Failed ticks are logged and the previous
// colors are kept.
func (u *Updater) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := u.Tick(); err != nil {
				u.log.Warnf("update skipped: %v", err)
			}
		}
	}
}

// Tick runs one capture and sampling pass.
func (u *Updater) Tick() error {
	s := u.Settings()
	if s.Paused {
		return nil
	}
	if !s.StatusBar && !s.NavigationBar {
		u.apply(BarColors{})
		return nil
	}

	params := u.geometry.Params(s.Rotation)
	if s.NavigationBar && params.NavigationBarHeight <= 0 {
		u.log.Warnf("navigation bar height is %d, disabling navigation bar tracking", params.NavigationBarHeight)
		u.Update(func(s *UpdaterSettings) { s.NavigationBar = false })
		return nil
	}

	fb, err := u.src.CaptureFrame()
	if err != nil {
		return fmt.Errorf("capturing frame: %w", err)
	}
	res, err := barcolor.Sample(fb, params)
	if err != nil {
		return fmt.Errorf("sampling frame: %w", err)
	}
	u.log.Tracef("sampled %v: top=%v stable=%t bottom=%v stable=%t",
		s.Rotation, res.Top.Color, res.Top.Stable, res.Bottom.Color, res.Bottom.Stable)

	next := u.Colors()
	if s.StatusBar {
		c := res.Top.Color
		if s.StatusFilter {
			c = c.Offset(statusFilterOffset)
		}
		if c != next.StatusBar {
			next.StatusBar = c
			next.StatusBarIcon = iconColor(c, res.Top.Stable)
		}
	} else {
		next.StatusBar, next.StatusBarIcon = 0, 0
	}
	if s.NavigationBar {
		c := res.Bottom.Color
		if c != next.NavigationBar {
			next.NavigationBar = c
			next.NavigationBarIcon = iconColor(c, res.Bottom.Stable)
		}
	} else {
		next.NavigationBar, next.NavigationBarIcon = 0, 0
	}
	u.apply(next)
	return nil
}

// iconColor picks dark icons only for bright bars whose corner probes agree.
func iconColor(bar barcolor.Color, stable bool) barcolor.Color {
	if stable && bar.Brightness() > brightnessThreshold {
		return IconDark
	}
	return IconLight
}

func (u *Updater) apply(next BarColors) {
	u.notify.Lock()
	defer u.notify.Unlock()

	u.mu.Lock()
	if next == u.colors {
		u.mu.Unlock()
		return
	}
	u.colors = next
	listeners := make([]Listener, 0, len(u.listeners))
	for _, l := range u.listeners {
		listeners = append(listeners, l)
	}
	u.mu.Unlock()

	u.log.Debugf("bar colors changed: status=%v/%08x navigation=%v/%08x",
		next.StatusBar, uint32(next.StatusBarIcon), next.NavigationBar, uint32(next.NavigationBarIcon))
	for _, l := range listeners {
		l.BarColorsChanged(next)
	}
}

// Colors returns the current override state.
func (u *Updater) Colors() BarColors {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.colors
}

// Settings returns a snapshot of the runtime switches.
func (u *Updater) Settings() UpdaterSettings {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.settings
}

// Update changes the runtime switches and returns the result. Changing the
// rotation or the filter takes effect on the next tick.
func (u *Updater) Update(fn func(*UpdaterSettings)) UpdaterSettings {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(&u.settings)
	return u.settings
}

// AddListener registers l, immediately delivers the current state to it and
// returns a func that removes it again. Listeners must not call AddListener
// from BarColorsChanged.
func (u *Updater) AddListener(l Listener) (remove func()) {
	u.notify.Lock()
	defer u.notify.Unlock()

	u.mu.Lock()
	id := u.nextID
	u.nextID++
	u.listeners[id] = l
	current := u.colors
	u.mu.Unlock()

	l.BarColorsChanged(current)

	return func() {
		u.mu.Lock()
		delete(u.listeners, id)
		u.mu.Unlock()
	}
}

// Subscribe returns a channel that always holds the most recent state.
// Slow readers skip intermediate states rather than blocking the updater.
func (u *Updater) Subscribe() (<-chan BarColors, func()) {
	ch := make(chan BarColors, 1)
	var mu sync.Mutex
	remove := u.AddListener(ListenerFunc(func(c BarColors) {
		mu.Lock()
		defer mu.Unlock()
		select {
		case <-ch:
		default:
		}
		ch <- c
	}))
	return ch, remove
}
