package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// EngineESCL drives a network scanner over eSCL.
	EngineESCL = "escl"
	// EngineDirectory picks up pages from a scan-to-folder inbox.
	EngineDirectory = "directory"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, host surface,
// scan sessions, the scanning engine and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response.
		// Scan requests block until the user finishes, keep it generous.
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
	} `yaml:"http"`

	// JWT contains the RS256 key pair used for bearer authentication
	JWT struct {
		// PublicKey is the PEM encoded key used to verify tokens
		PublicKey string `env:"JWT_PUBLIC_KEY" yaml:"publicKey"`
		// PrivateKey is the PEM encoded key used by the jwt command to sign tokens
		PrivateKey string `env:"JWT_PRIVATE_KEY" yaml:"privateKey"`
	} `yaml:"jwt"`

	// Host describes the presentation surface the scanner runs on
	Host struct {
		// PlatformVersion is the version reported by the host platform
		PlatformVersion int `env:"HOST_PLATFORM_VERSION" env-default:"35" yaml:"platformVersion"`
		// SurfaceID names the surface
		SurfaceID string `env:"HOST_SURFACE_ID" env-default:"main" yaml:"surfaceId"`
		// Attached controls whether the surface starts attached
		Attached bool `env:"HOST_ATTACHED" env-default:"true" yaml:"attached"`
		// ChromeVisible is the initial chrome visibility of the surface
		ChromeVisible bool `env:"HOST_CHROME_VISIBLE" env-default:"false" yaml:"chromeVisible"`
	} `yaml:"host"`

	// Session contains scan session admission settings
	Session struct {
		// MinPlatformVersion is the lowest platform version the scanner runs on
		MinPlatformVersion int `env:"SESSION_MIN_PLATFORM_VERSION" env-default:"21" yaml:"minPlatformVersion"`
		// ChromeGuardVersion is the platform version from which chrome is saved and restored
		ChromeGuardVersion int `env:"SESSION_CHROME_GUARD_VERSION" env-default:"35" yaml:"chromeGuardVersion"`
		// QueueSize is the task buffer of the session loop
		QueueSize int `env:"SESSION_QUEUE_SIZE" env-default:"64" yaml:"queueSize"`
	} `yaml:"session"`

	// Engine selects and configures the scanning engine
	Engine struct {
		// Kind is either escl or directory
		Kind string `env:"ENGINE_KIND" env-default:"directory" yaml:"kind"`
		// Mode is the scanner UI mode, full or base
		Mode string `env:"ENGINE_MODE" env-default:"full" yaml:"mode"`
		// PageStore is where engine outputs are kept
		PageStore string `env:"ENGINE_PAGE_STORE" env-default:"./pages" yaml:"pageStore"`

		ESCL struct {
			// URL is the eSCL root of the network scanner
			URL string `env:"ENGINE_ESCL_URL" yaml:"url"`
			// Timeout bounds every single HTTP request to the scanner
			Timeout time.Duration `env:"ENGINE_ESCL_TIMEOUT" env-default:"30s" yaml:"timeout"`
			// PollInterval is the wait between page polls while the scanner is busy
			PollInterval time.Duration `env:"ENGINE_ESCL_POLL_INTERVAL" env-default:"1s" yaml:"pollInterval"`
			// Resolution in DPI
			Resolution int `env:"ENGINE_ESCL_RESOLUTION" env-default:"300" yaml:"resolution"`
			// ColorMode is RGB24, Grayscale8 or BlackAndWhite1
			ColorMode string `env:"ENGINE_ESCL_COLOR_MODE" env-default:"RGB24" yaml:"colorMode"`
			// Source is Platen or Feeder
			Source string `env:"ENGINE_ESCL_SOURCE" env-default:"Feeder" yaml:"source"`
		} `yaml:"escl"`

		Directory struct {
			// Inbox is the scan-to-folder directory
			Inbox string `env:"ENGINE_DIRECTORY_INBOX" env-default:"./inbox" yaml:"inbox"`
		} `yaml:"directory"`
	} `yaml:"engine"`

	// Sanitizer configures page materialisation
	Sanitizer struct {
		// Workers bounds concurrent page decoding, 0 means one per CPU
		Workers int `env:"SANITIZER_WORKERS" env-default:"0" yaml:"workers"`
		// ResourceTimeout bounds fetching remote page resources
		ResourceTimeout time.Duration `env:"SANITIZER_RESOURCE_TIMEOUT" env-default:"30s" yaml:"resourceTimeout"`
	} `yaml:"sanitizer"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Load receives the path for yaml config file and returns a filled Config struct.
func Load(configPath string) (*Config, error) {
	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// LoadEnv fills a Config from environment variables and defaults only.
func LoadEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read config from env: %w", err)
	}

	return &cfg, nil
}
