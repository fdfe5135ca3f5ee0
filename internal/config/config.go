package config

import "time"

// Config holds every tunable of the calibrator.
type Config struct {
	// Telemetry link
	ConnectionURI    string        `yaml:"connection_uri"`
	SystemID         int           `yaml:"system_id"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	AutoConnect      bool          `yaml:"auto_connect"`

	// Poll loop
	UpdateInterval      time.Duration `yaml:"update_interval"`
	ParamRequestTimeout time.Duration `yaml:"param_request_timeout"`

	// Rolling buffer
	MaxDataLength int     `yaml:"max_data_length"`
	WindowSeconds float64 `yaml:"window_seconds"`

	HTTP  HTTPConfig  `yaml:"http"`
	Chart ChartConfig `yaml:"chart"`
	Log   LogConfig   `yaml:"log"`

	// AuditDir enables the operator action log when non-empty.
	AuditDir string `yaml:"audit_dir"`
}

// HTTPConfig holds the chart surface server settings.
type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	AuthSecret   string        `yaml:"auth_secret"`
	SSEHeartbeat time.Duration `yaml:"sse_heartbeat"`
	SSEBuffer    int           `yaml:"sse_buffer"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// ChartConfig holds the rendered chart geometry in pixels.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// LogConfig holds logger settings. File is optional and rotated by size.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Baseline defaults.
const (
	DefaultConnectionURI       = "udp:0.0.0.0:14550"
	DefaultUpdateInterval      = 50 * time.Millisecond
	DefaultParamRequestTimeout = 1 * time.Second
	DefaultMaxDataLength       = 1000
	DefaultWindowSeconds       = 10.0

	// 255 is the conventional ground control station system id.
	DefaultSystemID = 255

	DefaultHTTPAddr = "127.0.0.1:8050"
)

// Baseline returns the default configuration.
func Baseline() *Config {
	return &Config{
		ConnectionURI:    DefaultConnectionURI,
		SystemID:         DefaultSystemID,
		HandshakeTimeout: 0, // wait for the first heartbeat forever

		UpdateInterval:      DefaultUpdateInterval,
		ParamRequestTimeout: DefaultParamRequestTimeout,

		MaxDataLength: DefaultMaxDataLength,
		WindowSeconds: DefaultWindowSeconds,

		HTTP: HTTPConfig{
			Addr:         DefaultHTTPAddr,
			SSEHeartbeat: 15 * time.Second,
			SSEBuffer:    50,
			ReadTimeout:  30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Chart: ChartConfig{
			Width:  600,
			Height: 300,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Window returns the display window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds * float64(time.Second))
}
