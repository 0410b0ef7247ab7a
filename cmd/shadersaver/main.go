package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/richinsley/goshadersaver/catalog"
	"github.com/richinsley/goshadersaver/config"
	"github.com/richinsley/goshadersaver/cycle"
	"github.com/richinsley/goshadersaver/graphics"
	"github.com/richinsley/goshadersaver/options"
	"github.com/richinsley/goshadersaver/renderer"
	"github.com/richinsley/goshadersaver/session"
	"github.com/richinsley/goshadersaver/telemetry"
	"github.com/richinsley/goshadersaver/translator"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	opts := options.Register(flag.CommandLine)
	flag.Parse()

	if *opts.Help {
		fmt.Println("Shader screensaver")
		flag.PrintDefaults()
		return
	}

	// a bare /s, /p or /c switch from a screensaver host overrides -mode
	modeArg := *opts.Mode
	if flag.NArg() > 0 {
		modeArg = flag.Arg(0)
	}
	mode, err := options.ParseMode(modeArg)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	cfg, err := config.Load(*opts.ConfigFile)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := opts.Apply(cfg); err != nil {
		log.Fatalf("Error in options: %v", err)
	}

	switch mode {
	case options.ModeConfig:
		err = runConfig(cfg, *opts.ConfigFile)
	case options.ModeScreensaver:
		err = runLive(cfg, true)
	case options.ModeWindow:
		err = runLive(cfg, false)
	case options.ModeRecord:
		err = runRecord(cfg)
	case options.ModeSnapshot:
		err = runSnapshot(cfg, *opts.SnapshotTime, snapshotPath(cfg.Record.Output))
	}
	if err != nil {
		log.Fatalf("%s failed: %v", mode, err)
	}
}

// runConfig prints the effective settings, or saves them when a config file
// was named so the next run picks them up.
func runConfig(cfg *config.Config, path string) error {
	if path != "" {
		if err := cfg.WriteYAML(path); err != nil {
			return err
		}
		log.Printf("Settings saved to %s", path)
		return nil
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// pipeline bundles what every mode needs to drive a session.
type pipeline struct {
	sess   *session.Session
	writer *telemetry.Writer
}

// newPipeline wires a session over the configured catalog. dev may be nil,
// in which case only the software renderer runs.
func newPipeline(cfg *config.Config, dev graphics.Device) (*pipeline, error) {
	loader := catalog.New(cfg.Effects.Dir)
	cyc, err := cycle.New(loader.Len(), cfg.Cycle.StartIndex)
	if err != nil {
		return nil, err
	}

	writer, err := telemetry.NewWriter(cfg.Telemetry.CSVPath)
	if err != nil {
		return nil, err
	}
	var collector *telemetry.Collector
	if writer != nil {
		collector = telemetry.NewCollector(writer)
	}

	var accel renderer.Renderer
	if dev != nil && !cfg.Render.Software {
		var xl renderer.Transpiler
		if cfg.Render.Profile == "angle" {
			xl = translator.NewANGLE()
		}
		accel = renderer.NewAccelerated(dev, loader, xl)
	}

	sess := session.New(session.Options{
		Accelerated: accel,
		Software:    renderer.NewSoftware(loader),
		Cycle:       cyc,
		Telemetry:   collector,
	})
	return &pipeline{sess: sess, writer: writer}, nil
}

// Close releases the session, then flushes telemetry.
func (p *pipeline) Close() {
	p.sess.Dispose()
	if err := p.writer.Close(); err != nil {
		log.Printf("Error closing telemetry: %v", err)
	}
}

func caption(index int, path session.Path) []string {
	return []string{
		fmt.Sprintf("%d %s", index, catalog.Title(index)),
		path.String(),
	}
}

func snapshotPath(output string) string {
	ext := filepath.Ext(output)
	if strings.EqualFold(ext, ".png") {
		return output
	}
	return strings.TrimSuffix(output, ext) + ".png"
}
