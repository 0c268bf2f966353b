package configs

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the worker, assembled entirely
// from environment variables (optionally loaded from a .env file).
type Config struct {
	Environment string
	ServiceName string

	Server   ServerConfig
	Logger   LoggerConfig
	Jaeger   JaegerConfig
	Redis    RedisConfig
	History  HistoryConfig
	Queue    QueueConfig
	Worker   WorkerConfig
	WebFetch WebFetchConfig
	Compress CompressConfig
}

// ServerConfig configures the operational HTTP surface.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LoggerConfig configures the zap logger.
type LoggerConfig struct {
	Level string
}

// JaegerConfig configures optional tracing. Tracing stays disabled
// until URL is non-empty.
type JaegerConfig struct {
	URL          string
	SamplingRate float64
}

// RedisConfig configures the optional hostname-safety cache. The cache
// stays disabled until Address is non-empty.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// HistoryConfig configures the local job history store.
type HistoryConfig struct {
	Dialect string
	DSN     string
}

// QueueConfig configures the RPC connection to the remote job queue.
type QueueConfig struct {
	URL   string
	Token string
}

// WorkerConfig configures the claim/heartbeat poll loop.
type WorkerConfig struct {
	ID                string
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	TTFPath           string
	OCRLang           string
}

// WebFetchConfig configures the safe web-fetch subsystem.
type WebFetchConfig struct {
	AllowHostnameFallback bool
	RateLimitPerMinute    int
}

// CompressConfig configures the staged compression pipeline exactly
// per the environment variables it recognizes.
type CompressConfig struct {
	TimeoutSeconds         int
	TimeoutBaseSeconds     int
	TimeoutPerMBSeconds    float64
	TimeoutPerPageSeconds  float64
	TimeoutMaxSeconds      int
	TimeoutProbePages      int
	TimeoutProbeMaxSeconds int

	Profile                string
	AutoImageHeavy         bool
	GSPassthroughJPEG      bool
	GSMinSizeMB            float64
	GSPreset               string
	GSExtraFlags           bool
	UseZopfli              bool
	EnableImageOpt         bool
	EnablePDFSizeOpt       bool
	EnableJBIG2            bool
	Parallelism            int
	SavingsThresholdPct    float64
	MinSavingsBytes        int64
	MutoolObjectStreams    bool
	QPDFOIKeepInlineImages bool
	QPDFOIQuality          int
	QPDFOIMinWidth         int
	QPDFOIMinHeight        int
	QPDFOIMinArea          int
}

// GetDialect returns the history store dialect, defaulting to sqlite.
func (c HistoryConfig) GetDialect() string {
	if c.Dialect == "" {
		return "sqlite"
	}
	return c.Dialect
}

// GetDSN returns the history store DSN, defaulting to a local file.
func (c HistoryConfig) GetDSN() string {
	if c.DSN == "" {
		return "./zenpdf-history.db"
	}
	return c.DSN
}

// env declares a default value for an environment-backed setting and
// binds viper to read it straight from the process environment.
func env(v *viper.Viper, key string, def interface{}) {
	v.SetDefault(key, def)
	_ = v.BindEnv(key, key)
}

// Load builds a Config from the environment, loading envPath first
// (if it exists) via godotenv without overriding variables already
// set in the process environment.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, err
			}
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	env(v, "ZENPDF_ENVIRONMENT", "production")
	env(v, "ZENPDF_SERVICE_NAME", "zenpdf-worker")
	env(v, "ZENPDF_HTTP_PORT", "9091")
	env(v, "ZENPDF_HTTP_READ_TIMEOUT", "15s")
	env(v, "ZENPDF_HTTP_WRITE_TIMEOUT", "15s")
	env(v, "ZENPDF_LOG_LEVEL", "info")
	env(v, "ZENPDF_JAEGER_URL", "")
	env(v, "ZENPDF_JAEGER_SAMPLING_RATE", 0.1)
	env(v, "ZENPDF_REDIS_ADDR", "")
	env(v, "ZENPDF_REDIS_PASSWORD", "")
	env(v, "ZENPDF_REDIS_DB", 0)
	env(v, "ZENPDF_HISTORY_DIALECT", "sqlite")
	env(v, "ZENPDF_HISTORY_DSN", "./zenpdf-history.db")
	env(v, "ZENPDF_CONVEX_URL", "")
	env(v, "ZENPDF_WORKER_TOKEN", "")
	env(v, "ZENPDF_WORKER_ID", "worker-local")
	env(v, "ZENPDF_POLL_INTERVAL", "5s")
	env(v, "ZENPDF_WORKER_HEARTBEAT_SECONDS", "25s")
	env(v, "ZENPDF_TTF_PATH", "")
	env(v, "ZENPDF_OCR_LANG", "eng")
	env(v, "ZENPDF_WEB_ALLOW_HOSTNAME_FALLBACK", false)
	env(v, "ZENPDF_WEB_FETCH_RATE_PER_MINUTE", 30)

	env(v, "ZENPDF_COMPRESS_TIMEOUT_SECONDS", 0)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_BASE_SECONDS", 120)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_PER_MB_SECONDS", 3.0)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_PER_PAGE_SECONDS", 1.5)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_MAX_SECONDS", 900)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_PROBE_PAGES", 5)
	env(v, "ZENPDF_COMPRESS_TIMEOUT_PROBE_MAX_SECONDS", 30)
	env(v, "ZENPDF_COMPRESS_PROFILE", "balanced")
	env(v, "ZENPDF_COMPRESS_AUTO_IMAGE_HEAVY", true)
	env(v, "ZENPDF_COMPRESS_GS_PASSTHROUGH_JPEG", false)
	env(v, "ZENPDF_COMPRESS_GS_MIN_SIZE_MB", 5.0)
	env(v, "ZENPDF_COMPRESS_GS_PRESET", "")
	env(v, "ZENPDF_COMPRESS_GS_EXTRA_FLAGS", false)
	env(v, "ZENPDF_COMPRESS_USE_ZOPFLI", false)
	env(v, "ZENPDF_COMPRESS_ENABLE_IMAGE_OPT", false)
	env(v, "ZENPDF_COMPRESS_ENABLE_PDFSIZEOPT", false)
	env(v, "ZENPDF_COMPRESS_ENABLE_JBIG2", false)
	env(v, "ZENPDF_COMPRESS_PARALLELISM", 1)
	env(v, "ZENPDF_COMPRESS_SAVINGS_THRESHOLD_PCT", 0.08)
	env(v, "ZENPDF_COMPRESS_MIN_SAVINGS_BYTES", int64(200000))
	env(v, "ZENPDF_MUTOOL_OBJECT_STREAMS", false)
	env(v, "ZENPDF_QPDF_OI_KEEP_INLINE_IMAGES", false)
	env(v, "ZENPDF_QPDF_OI_QUALITY", 40)
	env(v, "ZENPDF_QPDF_OI_MIN_WIDTH", 128)
	env(v, "ZENPDF_QPDF_OI_MIN_HEIGHT", 128)
	env(v, "ZENPDF_QPDF_OI_MIN_AREA", 16384)

	cfg := &Config{
		Environment: v.GetString("ZENPDF_ENVIRONMENT"),
		ServiceName: v.GetString("ZENPDF_SERVICE_NAME"),
		Server: ServerConfig{
			Port:         v.GetString("ZENPDF_HTTP_PORT"),
			ReadTimeout:  v.GetDuration("ZENPDF_HTTP_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("ZENPDF_HTTP_WRITE_TIMEOUT"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("ZENPDF_LOG_LEVEL"),
		},
		Jaeger: JaegerConfig{
			URL:          v.GetString("ZENPDF_JAEGER_URL"),
			SamplingRate: v.GetFloat64("ZENPDF_JAEGER_SAMPLING_RATE"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("ZENPDF_REDIS_ADDR"),
			Password: v.GetString("ZENPDF_REDIS_PASSWORD"),
			DB:       v.GetInt("ZENPDF_REDIS_DB"),
		},
		History: HistoryConfig{
			Dialect: v.GetString("ZENPDF_HISTORY_DIALECT"),
			DSN:     v.GetString("ZENPDF_HISTORY_DSN"),
		},
		Queue: QueueConfig{
			URL:   v.GetString("ZENPDF_CONVEX_URL"),
			Token: v.GetString("ZENPDF_WORKER_TOKEN"),
		},
		Worker: WorkerConfig{
			ID:                v.GetString("ZENPDF_WORKER_ID"),
			PollInterval:      v.GetDuration("ZENPDF_POLL_INTERVAL"),
			HeartbeatInterval: v.GetDuration("ZENPDF_WORKER_HEARTBEAT_SECONDS"),
			TTFPath:           v.GetString("ZENPDF_TTF_PATH"),
			OCRLang:           v.GetString("ZENPDF_OCR_LANG"),
		},
		WebFetch: WebFetchConfig{
			AllowHostnameFallback: v.GetBool("ZENPDF_WEB_ALLOW_HOSTNAME_FALLBACK"),
			RateLimitPerMinute:    v.GetInt("ZENPDF_WEB_FETCH_RATE_PER_MINUTE"),
		},
		Compress: CompressConfig{
			TimeoutSeconds:         v.GetInt("ZENPDF_COMPRESS_TIMEOUT_SECONDS"),
			TimeoutBaseSeconds:     v.GetInt("ZENPDF_COMPRESS_TIMEOUT_BASE_SECONDS"),
			TimeoutPerMBSeconds:    v.GetFloat64("ZENPDF_COMPRESS_TIMEOUT_PER_MB_SECONDS"),
			TimeoutPerPageSeconds:  v.GetFloat64("ZENPDF_COMPRESS_TIMEOUT_PER_PAGE_SECONDS"),
			TimeoutMaxSeconds:      v.GetInt("ZENPDF_COMPRESS_TIMEOUT_MAX_SECONDS"),
			TimeoutProbePages:      v.GetInt("ZENPDF_COMPRESS_TIMEOUT_PROBE_PAGES"),
			TimeoutProbeMaxSeconds: v.GetInt("ZENPDF_COMPRESS_TIMEOUT_PROBE_MAX_SECONDS"),

			Profile:                v.GetString("ZENPDF_COMPRESS_PROFILE"),
			AutoImageHeavy:         v.GetBool("ZENPDF_COMPRESS_AUTO_IMAGE_HEAVY"),
			GSPassthroughJPEG:      v.GetBool("ZENPDF_COMPRESS_GS_PASSTHROUGH_JPEG"),
			GSMinSizeMB:            v.GetFloat64("ZENPDF_COMPRESS_GS_MIN_SIZE_MB"),
			GSPreset:               v.GetString("ZENPDF_COMPRESS_GS_PRESET"),
			GSExtraFlags:           v.GetBool("ZENPDF_COMPRESS_GS_EXTRA_FLAGS"),
			UseZopfli:              v.GetBool("ZENPDF_COMPRESS_USE_ZOPFLI"),
			EnableImageOpt:         v.GetBool("ZENPDF_COMPRESS_ENABLE_IMAGE_OPT"),
			EnablePDFSizeOpt:       v.GetBool("ZENPDF_COMPRESS_ENABLE_PDFSIZEOPT"),
			EnableJBIG2:            v.GetBool("ZENPDF_COMPRESS_ENABLE_JBIG2"),
			Parallelism:            v.GetInt("ZENPDF_COMPRESS_PARALLELISM"),
			SavingsThresholdPct:    v.GetFloat64("ZENPDF_COMPRESS_SAVINGS_THRESHOLD_PCT"),
			MinSavingsBytes:        v.GetInt64("ZENPDF_COMPRESS_MIN_SAVINGS_BYTES"),
			MutoolObjectStreams:    v.GetBool("ZENPDF_MUTOOL_OBJECT_STREAMS"),
			QPDFOIKeepInlineImages: v.GetBool("ZENPDF_QPDF_OI_KEEP_INLINE_IMAGES"),
			QPDFOIQuality:          v.GetInt("ZENPDF_QPDF_OI_QUALITY"),
			QPDFOIMinWidth:         v.GetInt("ZENPDF_QPDF_OI_MIN_WIDTH"),
			QPDFOIMinHeight:        v.GetInt("ZENPDF_QPDF_OI_MIN_HEIGHT"),
			QPDFOIMinArea:          v.GetInt("ZENPDF_QPDF_OI_MIN_AREA"),
		},
	}

	return cfg, nil
}
