package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort  string
	LogLevel string

	LogFile        string
	LogMaxSizeMB   int
	LogMaxBackups  int
	LogMaxAgeDays  int
	LogCompressOld bool

	ArtifactDir  string
	ModelFile    string
	FeaturesFile string

	MaxUploadBytes   int64
	ResultTTLSeconds int
	ResultCacheSize  int

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWaitMS int

	// Empty DSN or URL disables the audit trail.
	PostgresDSN string
	NATSURL     string
	NATSSubject string

	WorkerMetricsPort string
}

// Load reads the optional CONFIG_FILE YAML overlay, then the environment.
// Environment variables win over file values; both fall back to defaults.
func Load() (Config, error) {
	src := source{}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		src.file = file
	}

	return Config{
		APIPort:  src.mustEnv("API_PORT", "8080"),
		LogLevel: src.mustEnv("LOG_LEVEL", "info"),

		LogFile:        src.mustEnv("LOG_FILE", ""),
		LogMaxSizeMB:   src.mustEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups:  src.mustEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays:  src.mustEnvInt("LOG_MAX_AGE_DAYS", 14),
		LogCompressOld: src.mustEnvBool("LOG_COMPRESS", true),

		ArtifactDir:  src.mustEnv("ARTIFACT_DIR", "./artifacts"),
		ModelFile:    src.mustEnv("MODEL_FILE", "rf_parkinsons_v1.json"),
		FeaturesFile: src.mustEnv("FEATURES_FILE", "selected_features.json"),

		MaxUploadBytes:   int64(src.mustEnvInt("MAX_UPLOAD_BYTES", 32<<20)),
		ResultTTLSeconds: src.mustEnvInt("RESULT_TTL_SECONDS", 900),
		ResultCacheSize:  src.mustEnvInt("RESULT_CACHE_SIZE", 128),

		APIRateLimitRPS:       src.mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     src.mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        src.mustEnvInt("API_MAX_IN_FLIGHT", 8),
		APIBackpressureWaitMS: src.mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250),

		PostgresDSN: src.mustEnv("POSTGRES_DSN", ""),
		NATSURL:     src.mustEnv("NATS_URL", ""),
		NATSSubject: src.mustEnv("NATS_SUBJECT", "screenings.completed"),

		WorkerMetricsPort: src.mustEnv("WORKER_METRICS_PORT", "9090"),
	}, nil
}

// readFile accepts a flat mapping of the same keys as the environment.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		switch v := value.(type) {
		case nil:
			continue
		case map[string]any, []any:
			return nil, fmt.Errorf("parse config file %s: key %s must be a scalar", path, key)
		default:
			out[strings.ToUpper(key)] = fmt.Sprint(v)
		}
	}
	return out, nil
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) mustEnv(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) mustEnvInt(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvFloat(key string, fallback float64) float64 {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func (s source) mustEnvBool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
