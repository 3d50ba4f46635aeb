package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Upload   UploadConfig   `yaml:"upload"`
	Registry RegistryConfig `yaml:"registry"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// UploadConfig holds list-upload limits.
type UploadConfig struct {
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" env:"UPLOAD_MAX_FILE_SIZE_BYTES" env-default:"5242880"`
	MaxRowsPerList   int   `yaml:"max_rows_per_list"   env:"UPLOAD_MAX_ROWS_PER_LIST"   env-default:"10000"`
}

// RegistryConfig holds facility-registry settings.
type RegistryConfig struct {
	// IDAllocationRetries bounds identifier regeneration on insert conflict.
	IDAllocationRetries int `yaml:"id_allocation_retries" env:"REGISTRY_ID_ALLOCATION_RETRIES" env-default:"5"`
	DefaultPageSize     int `yaml:"default_page_size"     env:"REGISTRY_DEFAULT_PAGE_SIZE"     env-default:"20"`
	MaxPageSize         int `yaml:"max_page_size"         env:"REGISTRY_MAX_PAGE_SIZE"         env-default:"100"`
	// AutomaticMatchThreshold is the scorer confidence at or above which a
	// single candidate match is applied without adjudication.
	AutomaticMatchThreshold float64 `yaml:"automatic_match_threshold" env:"REGISTRY_AUTOMATIC_MATCH_THRESHOLD" env-default:"0.8"`
}

// PipelineConfig holds asynchronous list-processing settings.
type PipelineConfig struct {
	Workers   int `yaml:"workers"    env:"PIPELINE_WORKERS"    env-default:"4"`
	QueueSize int `yaml:"queue_size" env:"PIPELINE_QUEUE_SIZE" env-default:"64"`
	// GeocoderURL overrides the geocoding endpoint; empty uses the public
	// Nominatim instance.
	GeocoderURL string `yaml:"geocoder_url" env:"PIPELINE_GEOCODER_URL" env-default:""`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
