package options

import (
	"flag"
	"fmt"
	"strings"

	"github.com/richinsley/goshadersaver/config"
)

// Run modes.
const (
	ModeScreensaver = "screensaver"
	ModeWindow      = "window"
	ModeRecord      = "record"
	ModeSnapshot    = "snapshot"
	ModeConfig      = "config"
)

// SaverOptions holds the command-line flags. Flags that are set override the
// values loaded from the config file.
type SaverOptions struct {
	ConfigFile   *string
	Mode         *string
	Help         *bool
	Software     *bool
	Profile      *string
	Interval     *int
	Start        *int
	FPS          *int
	Width        *int
	Height       *int
	Duration     *float64
	OutputFile   *string
	FFMPEGPath   *string
	Codec        *string
	EffectsDir   *string
	Overlay      *bool
	TelemetryCSV *string
	SnapshotTime *float64

	fs *flag.FlagSet
}

// Register defines the flags on fs.
func Register(fs *flag.FlagSet) *SaverOptions {
	return &SaverOptions{
		ConfigFile:   fs.String("config", "", "YAML settings file layered over the built-in defaults"),
		Mode:         fs.String("mode", ModeScreensaver, "Run mode: screensaver, window, record, snapshot or config (/s, /p and /c are accepted too)"),
		Help:         fs.Bool("help", false, "Show help message"),
		Software:     fs.Bool("software", false, "Render with the software renderer only"),
		Profile:      fs.String("profile", "core", "Shader profile: core or angle"),
		Interval:     fs.Int("interval", 10, "Seconds on each effect (1-300)"),
		Start:        fs.Int("start", 0, "Index of the first effect"),
		FPS:          fs.Int("fps", 60, "Frames per second"),
		Width:        fs.Int("width", 1280, "Width of the window or the output"),
		Height:       fs.Int("height", 720, "Height of the window or the output"),
		Duration:     fs.Float64("duration", 60.0, "Duration to record in seconds"),
		OutputFile:   fs.String("output", "output.mp4", "Output file for record (video) and snapshot (PNG) modes"),
		FFMPEGPath:   fs.String("ffmpeg", "", "Path to ffmpeg executable"),
		Codec:        fs.String("codec", "libx264", "Video codec for record mode"),
		EffectsDir:   fs.String("effects", "", "Directory overriding the built-in effect files"),
		Overlay:      fs.Bool("overlay", false, "Draw the effect title and renderer path on frames"),
		TelemetryCSV: fs.String("telemetry", "", "Append per-effect frame statistics to this CSV file"),
		SnapshotTime: fs.Float64("time", 5.0, "Effect time in seconds for snapshot mode"),
		fs:           fs,
	}
}

// ParseMode maps a mode name or a screensaver host switch to a run mode.
func ParseMode(arg string) (string, error) {
	a := strings.ToLower(strings.TrimSpace(arg))
	switch {
	case a == ModeScreensaver, strings.HasPrefix(a, "/s"):
		return ModeScreensaver, nil
	case a == ModeWindow, a == "preview", strings.HasPrefix(a, "/p"):
		return ModeWindow, nil
	case a == ModeConfig, strings.HasPrefix(a, "/c"):
		return ModeConfig, nil
	case a == ModeRecord:
		return ModeRecord, nil
	case a == ModeSnapshot:
		return ModeSnapshot, nil
	}
	return "", fmt.Errorf("unknown mode %q", arg)
}

// Apply copies every explicitly set flag into cfg and validates the result.
func (o *SaverOptions) Apply(cfg *config.Config) error {
	o.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "software":
			cfg.Render.Software = *o.Software
		case "profile":
			cfg.Render.Profile = *o.Profile
		case "interval":
			cfg.Cycle.IntervalSeconds = *o.Interval
		case "start":
			cfg.Cycle.StartIndex = *o.Start
		case "fps":
			cfg.Render.FPS = *o.FPS
			cfg.Record.FPS = *o.FPS
		case "width":
			cfg.Window.Width = *o.Width
			cfg.Record.Width = *o.Width
		case "height":
			cfg.Window.Height = *o.Height
			cfg.Record.Height = *o.Height
		case "duration":
			cfg.Record.DurationSeconds = *o.Duration
		case "output":
			cfg.Record.Output = *o.OutputFile
		case "ffmpeg":
			cfg.Record.FFmpegPath = *o.FFMPEGPath
		case "codec":
			cfg.Record.Codec = *o.Codec
		case "effects":
			cfg.Effects.Dir = *o.EffectsDir
		case "overlay":
			cfg.Render.DebugOverlay = *o.Overlay
		case "telemetry":
			cfg.Telemetry.CSVPath = *o.TelemetryCSV
		}
	})
	return cfg.Validate()
}
