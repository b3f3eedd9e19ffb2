// deskpipe-synth exercises the graphics pipeline end to end without a remote
// server: it drives synthetic raw-bitmap updates and input events through a
// session and reports stats once per second.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/visiona/deskpipe/config"
	"github.com/visiona/deskpipe/decode"
	"github.com/visiona/deskpipe/framestore"
	"github.com/visiona/deskpipe/input"
	"github.com/visiona/deskpipe/session"
)

const version = "v0.1.0"

func main() {
	duration := flag.Duration("duration", 0, "Run time (0 = until interrupted)")
	updateRate := flag.Int("rate", 30, "Synthetic updates per second")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("deskpipe-synth %s\n", version)
		os.Exit(0)
	}

	interval, err := tickInterval(*updateRate)
	if err != nil {
		log.Fatalf("Invalid rate: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("deskpipe-synth starting",
		"version", version,
		"accel", cfg.Accel,
		"desktop", fmt.Sprintf("%dx%d", cfg.SyntheticWidth, cfg.SyntheticHeight),
		"rate", *updateRate,
	)

	// The synthetic feed is raw bitmaps, so a missing GStreamer install only
	// costs the H.264 path, not the run.
	dec, err := decode.New(decode.Config{
		Accel:            cfg.AccelMode(),
		PoolMaxPerBucket: cfg.PoolMaxPerBucket,
		ChannelDepth:     cfg.FrameChannelDepth,
	})
	if err != nil {
		slog.Warn("decoder unavailable, running raw-bitmap only", "error", err)
		dec = noopDecoder{}
	}

	store := framestore.NewStore()
	g, err := session.NewGraphics(store, dec, cfg.SyntheticWidth, cfg.SyntheticHeight)
	if err != nil {
		log.Fatalf("Failed to create session graphics: %v", err)
	}
	defer g.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	updateTicker := time.NewTicker(interval)
	defer updateTicker.Stop()
	statsTicker := time.NewTicker(time.Second)
	defer statsTicker.Stop()

	// One reusable source framebuffer; each tick repaints a moving band so
	// successive updates touch different rows.
	src := make([]byte, cfg.SyntheticWidth*cfg.SyntheticHeight*4)
	tick := 0

	for {
		select {
		case <-sigChan:
			slog.Info("interrupted, shutting down")
			printFinal(g)
			return

		case <-deadline:
			slog.Info("duration elapsed, shutting down")
			printFinal(g)
			return

		case <-updateTicker.C:
			tick++
			r := paintBand(src, cfg.SyntheticWidth, cfg.SyntheticHeight, tick)
			if err := g.RawBitmap(src, cfg.SyntheticWidth, r); err != nil {
				slog.Error("synthetic update rejected", "error", err)
				continue
			}
			// Sprinkle input traffic alongside the video path.
			g.SendInput(input.MouseMove{X: uint16(tick % cfg.SyntheticWidth), Y: uint16(tick % cfg.SyntheticHeight)})

		case <-statsTicker.C:
			snap := g.Stats().Snapshot()
			slog.Info("session stats",
				"session_id", snap.SessionID,
				"phase", snap.Phase,
				"uptime", snap.Uptime.Round(time.Second),
				"pdus_received", snap.PDUsReceived,
				"bytes_received", snap.BytesReceived,
				"input_events", snap.InputEvents,
				"fps", fmt.Sprintf("%.1f", snap.FPS),
			)
		}
	}
}

// tickInterval converts an updates-per-second rate into a ticker period.
func tickInterval(rate int) (time.Duration, error) {
	if rate <= 0 || rate > 1000 {
		return 0, fmt.Errorf("%d updates/s (must be 1-1000)", rate)
	}
	return time.Second / time.Duration(rate), nil
}

// paintBand fills a 16-row horizontal band that walks down the desktop and
// returns the rectangle it touched.
func paintBand(src []byte, width, height, tick int) framestore.Rect {
	const bandRows = 16
	top := (tick * bandRows) % height
	rows := bandRows
	if top+rows > height {
		rows = height - top
	}

	val := byte(tick)
	for y := top; y < top+rows; y++ {
		row := src[y*width*4 : (y+1)*width*4]
		for i := range row {
			row[i] = val
		}
	}
	return framestore.Rect{Left: 0, Top: top, Right: width - 1, Bottom: top + rows - 1}
}

// noopDecoder stands in when no decode backend is available; the synthetic
// feed never calls Decode.
type noopDecoder struct{}

func (noopDecoder) Decode(nal []byte) ([]decode.Frame, error) {
	return nil, fmt.Errorf("no decode backend available")
}
func (noopDecoder) Flush() []decode.Frame { return nil }
func (noopDecoder) Name() string          { return "none" }
func (noopDecoder) Release(decode.Frame)  {}
func (noopDecoder) Close() error          { return nil }

func printFinal(g *session.Graphics) {
	snap := g.Stats().Snapshot()
	fmt.Printf("\n")
	fmt.Printf("═══════════════════════════════════════════\n")
	fmt.Printf("            Final Statistics\n")
	fmt.Printf("═══════════════════════════════════════════\n")
	fmt.Printf("  Uptime:          %s\n", snap.Uptime.Round(time.Second))
	fmt.Printf("  PDUs Received:   %d\n", snap.PDUsReceived)
	fmt.Printf("  Bytes Received:  %.2f MB\n", float64(snap.BytesReceived)/1024/1024)
	fmt.Printf("  Input Events:    %d\n", snap.InputEvents)
	fmt.Printf("  Recovered Errs:  %d\n", snap.RecoveredErrors)
	fmt.Printf("═══════════════════════════════════════════\n")
}
