package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/utils"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AlbumName is the directory created under the pictures folder for labeled images
const AlbumName = "PicLabel"

// Config represents the application configuration
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Label    LabelConfig    `mapstructure:"label"`
	Geocode  GeocodeConfig  `mapstructure:"geocode"`
	Location LocationConfig `mapstructure:"location"`
	S3       S3Config       `mapstructure:"s3"`
	Share    ShareConfig    `mapstructure:"share"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

// LabelConfig controls caption rendering and the saved output
type LabelConfig struct {
	Font        string `mapstructure:"font"`
	FontFile    string `mapstructure:"font_file"`
	OutputDir   string `mapstructure:"output_dir"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
	DateFormat  string `mapstructure:"date_format"`
	Timezone    string `mapstructure:"timezone"`
	// Sidecars reads "<image>.json" exports for missing date and GPS
	Sidecars    bool   `mapstructure:"sidecars"`
}

// GeocodeConfig represents reverse geocoder settings
type GeocodeConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	Language  string        `mapstructure:"language"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LocationConfig describes where the device location fallback comes from.
// Static is "lat,lon"; File points at a YAML last-known-location file whose
// fixes older than MaxAge are ignored (0 keeps them all).
type LocationConfig struct {
	Static string        `mapstructure:"static"`
	File   string        `mapstructure:"file"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// S3Config represents S3 connection configuration
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

// ShareConfig represents publishing of labeled images
type ShareConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Expiry  time.Duration `mapstructure:"expiry"`
}

// BatchConfig represents multi-file and watch mode settings
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Resume      bool          `mapstructure:"resume"`
	JournalPath string        `mapstructure:"journal_path"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// New creates a new configuration with default values
func New() *Config {
	return &Config{
		LogLevel: "info",
		Label: LabelConfig{
			Font:        "goregular",
			OutputDir:   defaultOutputDir(),
			JPEGQuality: 85,
			DateFormat:  "Monday, January 2, 2006 15:04",
			Timezone:    "Local",
			Sidecars:    true,
		},
		Geocode: GeocodeConfig{
			Enabled:   true,
			Endpoint:  "https://nominatim.openstreetmap.org",
			Language:  "en",
			UserAgent: "piclabel/1.0",
			Timeout:   10 * time.Second,
		},
		Location: LocationConfig{
			MaxAge: 24 * time.Hour,
		},
		S3: S3Config{
			Region: "us-east-1",
			UseSSL: true,
		},
		Share: ShareConfig{
			Expiry: 7 * 24 * time.Hour,
		},
		Batch: BatchConfig{
			Concurrency: 4,
			Resume:      true,
			SettleDelay: 2 * time.Second,
		},
	}
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("Pictures", AlbumName)
	}
	return filepath.Join(home, "Pictures", AlbumName)
}

// Load reads the optional config file at path and PICLABEL_* environment
// variables on top of the defaults.
func Load(path string) (*Config, error) {
	return LoadWithFlags(path, nil, nil)
}

// LoadWithFlags is Load with command line flags layered on top. bindings
// maps config keys (e.g. "label.jpeg_quality") to flag names; only flags
// the user set take effect.
func LoadWithFlags(path string, flags *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	v := viper.New()
	setDefaults(v, New())

	for key, name := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("unknown flag %q bound to %s", name, key)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix("PICLABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("label.font", d.Label.Font)
	v.SetDefault("label.font_file", d.Label.FontFile)
	v.SetDefault("label.output_dir", d.Label.OutputDir)
	v.SetDefault("label.jpeg_quality", d.Label.JPEGQuality)
	v.SetDefault("label.date_format", d.Label.DateFormat)
	v.SetDefault("label.timezone", d.Label.Timezone)
	v.SetDefault("label.sidecars", d.Label.Sidecars)

	v.SetDefault("geocode.enabled", d.Geocode.Enabled)
	v.SetDefault("geocode.endpoint", d.Geocode.Endpoint)
	v.SetDefault("geocode.language", d.Geocode.Language)
	v.SetDefault("geocode.user_agent", d.Geocode.UserAgent)
	v.SetDefault("geocode.timeout", d.Geocode.Timeout)

	v.SetDefault("location.static", d.Location.Static)
	v.SetDefault("location.file", d.Location.File)
	v.SetDefault("location.max_age", d.Location.MaxAge)

	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.bucket", d.S3.Bucket)
	v.SetDefault("s3.access_key", d.S3.AccessKey)
	v.SetDefault("s3.secret_key", d.S3.SecretKey)
	v.SetDefault("s3.use_ssl", d.S3.UseSSL)
	v.SetDefault("s3.prefix", d.S3.Prefix)

	v.SetDefault("share.enabled", d.Share.Enabled)
	v.SetDefault("share.expiry", d.Share.Expiry)

	v.SetDefault("batch.concurrency", d.Batch.Concurrency)
	v.SetDefault("batch.resume", d.Batch.Resume)
	v.SetDefault("batch.journal_path", d.Batch.JournalPath)
	v.SetDefault("batch.settle_delay", d.Batch.SettleDelay)
}

// Validate checks the settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.Label.JPEGQuality < 1 || c.Label.JPEGQuality > 100 {
		return common.NewConfigError(fmt.Sprintf("jpeg quality must be between 1 and 100, got %d", c.Label.JPEGQuality))
	}
	if c.Label.OutputDir == "" {
		return common.NewConfigError("output directory is required")
	}
	if _, err := c.Zone(); err != nil {
		return common.NewConfigError(fmt.Sprintf("invalid timezone %q: %v", c.Label.Timezone, err))
	}
	if c.Location.MaxAge < 0 {
		return common.NewConfigError("location max age cannot be negative")
	}
	if c.Batch.Concurrency < 1 {
		return common.NewConfigError("concurrency must be at least 1")
	}
	if c.Geocode.Enabled {
		if _, err := utils.ParseServiceURL(c.Geocode.Endpoint); err != nil {
			return common.NewConfigError(fmt.Sprintf("invalid geocoder endpoint: %v", err))
		}
	}
	if c.Share.Enabled {
		if c.S3.Endpoint == "" {
			return common.NewConfigError("S3 endpoint is required for sharing")
		}
		if err := utils.ValidateS3BucketName(c.S3.Bucket); err != nil {
			return common.NewConfigError(err.Error())
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return common.NewConfigError("S3 access key and secret key are required for sharing")
		}
	}
	return nil
}

// Zone returns the time zone used to interpret EXIF and device timestamps
func (c *Config) Zone() (*time.Location, error) {
	if c.Label.Timezone == "" || c.Label.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Label.Timezone)
}
