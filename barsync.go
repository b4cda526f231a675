package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := ParseFlags(args)
	if err != nil {
		return err
	}

	lf, logCloser, err := newLoggerFactory(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log := lf.NewLogger("barsync")

	capturer, method, err := NewCapturer(cfg.Capture, cfg.Display, lf.NewLogger("capture"))
	if err != nil {
		return fmt.Errorf("no capture method available: %w", err)
	}
	defer capturer.Close()
	log.Infof("capturing display %d via %s", cfg.Display, method)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updater := NewUpdater(capturer, cfg, lf.NewLogger("updater"))

	if cfg.Listen != "" {
		feed := NewFeed(lf.NewLogger("feed"))
		defer updater.AddListener(feed)()
		go func() {
			if err := feed.ListenAndServe(ctx, cfg.Listen); err != nil {
				log.Errorf("color feed: %v", err)
			}
		}()
	}

	colors, unsubscribe := updater.Subscribe()
	defer unsubscribe()

	go updater.Run(ctx)

	p := tea.NewProgram(newModel(updater, colors, method, cfg.Hue, lf), tea.WithContext(ctx))
	result, err := p.Run()
	if m, ok := result.(model); ok && m.streamer != nil {
		m.removeListener()
		if err := m.streamer.Close(); err != nil {
			log.Warnf("closing stream: %v", err)
		}
		if err := DeactivateArea(m.selected.IP, m.creds.Username, m.selectedArea.ID); err != nil {
			log.Warnf("deactivating area: %v", err)
		}
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
