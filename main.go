package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/pion/webrtc/v4"
	"github.com/smazurov/docscan/cmd"
	"github.com/smazurov/docscan/internal/api"
	"github.com/smazurov/docscan/internal/camera"
	"github.com/smazurov/docscan/internal/config"
	"github.com/smazurov/docscan/internal/devices"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/ffmpeg"
	"github.com/smazurov/docscan/internal/intake"
	"github.com/smazurov/docscan/internal/led"
	"github.com/smazurov/docscan/internal/logging"
	"github.com/smazurov/docscan/internal/metrics/exporters"
	"github.com/smazurov/docscan/internal/platform"
	"github.com/smazurov/docscan/internal/save"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/smazurov/docscan/internal/streaming"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Camera settings
	CameraBackend       string `help:"Camera backend (auto, v4l2, mediadevices, fake, none)" default:"auto" toml:"camera.backend" env:"CAMERA_BACKEND"`
	CameraFacing        string `help:"Initial camera facing (rear, front)" default:"rear" toml:"camera.facing" env:"CAMERA_FACING"`
	CameraReadyTimeout  string `help:"How long to wait for the first frame" default:"10s" toml:"camera.ready_timeout" env:"CAMERA_READY_TIMEOUT"`
	CameraFFmpegPath    string `help:"ffmpeg binary used by the v4l2 backend" default:"ffmpeg" toml:"camera.ffmpeg_path" env:"CAMERA_FFMPEG_PATH"`
	CameraFFmpegOptions string `help:"Comma separated ffmpeg input options (empty for defaults)" default:"" toml:"camera.ffmpeg_options" env:"CAMERA_FFMPEG_OPTIONS"`
	CameraFPS           int    `help:"Live preview frame rate for the v4l2 backend" default:"15" toml:"camera.fps" env:"CAMERA_FPS"`
	CameraHotplug       bool   `help:"Recheck availability when cameras are plugged in or removed" default:"true" toml:"camera.hotplug" env:"CAMERA_HOTPLUG"`
	CameraHotplugSettle string `help:"Quiet period after a device event before rechecking" default:"1s" toml:"camera.hotplug_settle" env:"CAMERA_HOTPLUG_SETTLE"`

	// Save settings
	SaveEndpoint      string `help:"URL captured documents are posted to (empty for the built-in endpoint)" default:"" toml:"save.endpoint" env:"SAVE_ENDPOINT"`
	SaveTimeout       string `help:"Timeout for one save attempt" default:"30s" toml:"save.timeout" env:"SAVE_TIMEOUT"`
	SaveRetries       int    `help:"Extra attempts after a network failure" default:"2" toml:"save.retries" env:"SAVE_RETRIES"`
	SaveNavigateDelay string `help:"Pause between a successful save and navigation" default:"1s" toml:"save.navigate_delay" env:"SAVE_NAVIGATE_DELAY"`

	// Live view settings
	PreviewWebRTC     bool   `help:"Stream the live view over WebRTC (clients fall back to JPEG polling)" default:"true" toml:"preview.webrtc_enabled" env:"PREVIEW_WEBRTC"`
	PreviewICEServers string `help:"Comma separated STUN/TURN URLs (empty for LAN-only)" default:"" toml:"preview.ice_servers" env:"PREVIEW_ICE_SERVERS"`
	PreviewFPS        int    `help:"Live view encoder frame rate" default:"15" toml:"preview.fps" env:"PREVIEW_FPS"`
	PreviewBitrate    int    `help:"Live view bitrate in kbit/s" default:"1500" toml:"preview.bitrate_kbps" env:"PREVIEW_BITRATE"`
	PreviewMaxHeight  int    `help:"Scale the live view down to this height (0 keeps the camera size)" default:"720" toml:"preview.max_height" env:"PREVIEW_MAX_HEIGHT"`

	// Intake settings (built-in save endpoint)
	IntakeEnabled       bool   `help:"Serve the built-in save endpoint" default:"true" toml:"intake.enabled" env:"INTAKE_ENABLED"`
	IntakeDir           string `help:"Directory for received documents" default:"documents" toml:"intake.dir" env:"INTAKE_DIR"`
	IntakeThumbnailSize int    `help:"Thumbnail bounding box in pixels" default:"300" toml:"intake.thumbnail_size" env:"INTAKE_THUMBNAIL_SIZE"`

	// Observability settings
	ObsPrometheusEnabled bool `help:"Enable Prometheus" default:"true" toml:"obs.prometheus_enabled" env:"OBS_PROMETHEUS_ENABLED"`

	// Features settings
	FeaturesLEDControl bool   `help:"Light a board LED while the camera is on" default:"false" toml:"features.led_control_enabled" env:"FEATURES_LED_CONTROL"`
	FeaturesLEDName    string `help:"LED used as camera indicator (empty picks one)" default:"" toml:"features.led_name" env:"FEATURES_LED_NAME"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingBuffer   int    `help:"Log records kept for /api/logs" default:"1000" toml:"logging.buffer_size" env:"LOGGING_BUFFER_SIZE"`
	LoggingCamera   string `help:"Camera session logging level" default:"info" toml:"logging.camera" env:"LOGGING_CAMERA"`
	LoggingPlatform string `help:"Camera backend logging level" default:"info" toml:"logging.platform" env:"LOGGING_PLATFORM"`
	LoggingScanner  string `help:"Scanner pipeline logging level" default:"info" toml:"logging.scanner" env:"LOGGING_SCANNER"`
	LoggingSave     string `help:"Save client logging level" default:"info" toml:"logging.save" env:"LOGGING_SAVE"`
	LoggingIntake   string `help:"Intake logging level" default:"info" toml:"logging.intake" env:"LOGGING_INTAKE"`
	LoggingPreview  string `help:"WebRTC live view logging level" default:"info" toml:"logging.preview" env:"LOGGING_PREVIEW"`
	LoggingAPI      string `help:"API and HTTP request logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

// loggingConfig maps the logging options to per-module levels.
func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:      o.LoggingLevel,
		Format:     o.LoggingFormat,
		BufferSize: o.LoggingBuffer,
		Modules: map[string]string{
			"camera":   o.LoggingCamera,
			"platform": o.LoggingPlatform,
			"scanner":  o.LoggingScanner,
			"save":     o.LoggingSave,
			"intake":   o.LoggingIntake,
			"preview":  o.LoggingPreview,
			"api":      o.LoggingAPI,
			"http":     o.LoggingAPI,
		},
	}
}

// duration parses a duration option, falling back to def on bad input.
func duration(logger *slog.Logger, name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", def)
		return def
	}
	return d
}

// defaultSaveEndpoint is the built-in intake endpoint on the listen address.
func defaultSaveEndpoint(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		host, port = "", strings.TrimPrefix(listen, ":")
	}
	if host == "" || net.ParseIP(host).IsUnspecified() {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "8090"
	}
	return "http://" + net.JoinHostPort(host, port) + intake.Path
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// app holds what the root command and the subcommands share.
type app struct {
	opts     *Options
	logger   *slog.Logger
	eventBus *events.Bus

	mu       sync.Mutex
	cleanups []func()
}

// onShutdown registers fn to run on stop, in reverse registration order.
func (a *app) onShutdown(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cleanups = append(a.cleanups, fn)
}

func (a *app) shutdown() {
	a.mu.Lock()
	cleanups := a.cleanups
	a.cleanups = nil
	a.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}

func (a *app) newPlatform() (camera.Platform, error) {
	return platform.New(platform.Config{
		Backend:       a.opts.CameraBackend,
		FFmpegPath:    a.opts.CameraFFmpegPath,
		FFmpegOptions: splitList(a.opts.CameraFFmpegOptions),
		FPS:           a.opts.CameraFPS,
		Logger:        logging.GetLogger("platform"),
	})
}

func (a *app) newPipeline() (*scanner.Pipeline, error) {
	p, err := a.newPlatform()
	if err != nil {
		return nil, err
	}

	facing, err := camera.ParseFacing(a.opts.CameraFacing)
	if err != nil {
		a.logger.Warn("Invalid camera facing, using default", "value", a.opts.CameraFacing, "error", err)
		facing = camera.DefaultFacing
	}

	endpoint := a.opts.SaveEndpoint
	if endpoint == "" {
		endpoint = defaultSaveEndpoint(a.opts.Port)
	}
	saver := save.NewClient(save.ClientOptions{
		Endpoint: endpoint,
		Timeout:  duration(a.logger, "save.timeout", a.opts.SaveTimeout, 30*time.Second),
		Retries:  a.opts.SaveRetries,
		Logger:   logging.GetLogger("save"),
	})

	return scanner.New(scanner.Options{
		Platform:      p,
		Saver:         saver,
		Bus:           a.eventBus,
		Logger:        logging.GetLogger("scanner"),
		SessionLogger: logging.GetLogger("camera"),
		Facing:        facing,
		ReadyTimeout:  duration(a.logger, "camera.ready_timeout", a.opts.CameraReadyTimeout, camera.DefaultReadyTimeout),
		NavigateDelay: a.navigateDelay(),
	}), nil
}

// newPreview sets up the WebRTC live view fed from the pipeline's frames.
func (a *app) newPreview(pipeline *scanner.Pipeline) (*streaming.Manager, error) {
	logger := logging.GetLogger("preview")
	encoder := streaming.FFmpegEncoder(a.opts.CameraFFmpegPath, ffmpeg.H264Params{
		FPS:         a.opts.PreviewFPS,
		BitrateKbps: a.opts.PreviewBitrate,
		MaxHeight:   a.opts.PreviewMaxHeight,
	}, logger)

	hub, err := streaming.NewHub(streaming.HubOptions{
		Source:  pipeline,
		Encoder: encoder,
		FPS:     a.opts.PreviewFPS,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	var cfg streaming.Config
	if urls := splitList(a.opts.PreviewICEServers); len(urls) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: urls}}
	}
	return streaming.NewManager(hub, cfg, logger)
}

func (a *app) navigateDelay() time.Duration {
	return duration(a.logger, "save.navigate_delay", a.opts.SaveNavigateDelay, scanner.DefaultNavigateDelay)
}

func main() {
	a := &app{}

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		a.opts = opts

		// Flags given on the command line win over the file and environment
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(opts.loggingConfig())
		a.logger = logging.GetLogger("main")
		a.eventBus = events.New()

		hooks.OnStart(func() {
			logger := a.logger

			pipeline, err := a.newPipeline()
			if err != nil {
				logger.Error("Failed to set up scanner", "error", err)
				os.Exit(1)
			}
			// Releases the camera and cancels a pending navigation
			a.onShutdown(pipeline.Close)

			if opts.CameraHotplug {
				watcher := devices.NewWatcher(devices.Options{
					Check:  pipeline.Availability,
					Bus:    a.eventBus,
					Logger: logging.GetLogger("camera"),
					Settle: duration(logger, "camera.hotplug_settle", opts.CameraHotplugSettle, devices.DefaultSettle),
				})
				if watchErr := watcher.Start(context.Background()); watchErr != nil {
					logger.Warn("Camera hotplug monitoring unavailable", "error", watchErr)
				} else {
					a.onShutdown(watcher.Stop)
				}
			}

			apiOpts := &api.Options{
				Pipeline:      pipeline,
				EventBus:      a.eventBus,
				NavigateDelay: a.navigateDelay(),
			}

			if opts.PreviewWebRTC {
				preview, previewErr := a.newPreview(pipeline)
				if previewErr != nil {
					logger.Warn("WebRTC live view unavailable, clients will poll frames", "error", previewErr)
				} else {
					a.onShutdown(preview.Stop)
					apiOpts.Preview = preview
				}
			}

			if opts.ObsPrometheusEnabled {
				apiOpts.PrometheusHandler = exporters.HTTPHandler()
			}

			if opts.IntakeEnabled {
				store, storeErr := intake.NewStore(intake.StoreOptions{
					Dir:           opts.IntakeDir,
					ThumbnailSize: uint(max(opts.IntakeThumbnailSize, 0)),
					Logger:        logging.GetLogger("intake"),
				})
				if storeErr != nil {
					logger.Error("Failed to open document directory", "dir", opts.IntakeDir, "error", storeErr)
					os.Exit(1)
				}
				apiOpts.Intake = store
			}

			if opts.FeaturesLEDControl {
				logger.Info("LED control enabled, initializing")
				ledController := led.New(logger)
				ledName := opts.FeaturesLEDName
				if ledName == "" {
					ledName = led.DefaultIndicator(ledController)
				}
				ledManager := led.NewManager(ledController, a.eventBus, ledName, logger)
				ledManager.Start()
				a.onShutdown(ledManager.Stop)
				apiOpts.LEDController = ledManager.GetController()
			}

			// Level changes in the config file apply without a restart
			cfgWatcher := config.NewWatcher(opts.Config, config.LoadLoggingConfig, logger)
			cfgWatcher.OnReload(func(cfg logging.Config) {
				if level, ok := cfg.Modules["api"]; ok {
					cfg.Modules["http"] = level
				}
				logging.UpdateLevels(cfg)
				logger.Info("Logging levels reloaded", "level", cfg.Level)
			})
			if watchErr := cfgWatcher.Start(context.Background()); watchErr != nil {
				logger.Warn("Config file watching disabled", "error", watchErr)
			} else {
				a.onShutdown(func() {
					if stopErr := cfgWatcher.Stop(); stopErr != nil {
						logger.Debug("Error stopping config watcher", "error", stopErr)
					}
				})
			}

			server := api.NewServer(apiOpts)
			a.onShutdown(func() {
				if stopErr := server.Stop(); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			})

			logger.Info("Starting HTTP server", "port", opts.Port, "camera_backend", opts.CameraBackend)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			a.logger.Info("Shutting down server")
			a.shutdown()
		})
	})

	cli.Root().Use = "docscan"
	cli.Root().Short = "Document camera capture and enhancement service"
	cli.Root().AddCommand(cmd.CreateDevicesCmd(a.newPlatform))
	cli.Root().AddCommand(cmd.CreateSnapCmd(a.newPipeline))

	cli.Run()
}
