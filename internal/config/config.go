package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RejectPolicy selects how the upload receiver treats a file whose type is
// not allowed.
type RejectPolicy string

const (
	// RejectAbort fails the whole batch and cleans up anything already
	// persisted for the session.
	RejectAbort RejectPolicy = "abort"
	// RejectSkip records the file as rejected and continues with the rest.
	RejectSkip RejectPolicy = "skip"
)

type Config struct {
	ListenAddr   string
	DBPath       string
	UploadPath   string
	OutputPath   string
	BaseURL      string
	MaxFiles     int
	MaxFileSize  int64
	AllowedTypes []string
	RejectPolicy RejectPolicy
	Parallelism  int
	CropTimeout  time.Duration
	BatchTimeout time.Duration
	Retention    time.Duration
}

func Load() *Config {
	return &Config{
		ListenAddr:   getEnv("TW_LISTEN_ADDR", ":8080"),
		DBPath:       getEnv("TW_DB_PATH", "tmp/trimwizard.db"),
		UploadPath:   getEnv("TW_UPLOAD_PATH", "tmp/uploads"),
		OutputPath:   getEnv("TW_OUTPUT_PATH", "tmp/cropped"),
		BaseURL:      getEnv("TW_BASE_URL", "http://localhost:8080"),
		MaxFiles:     getEnvInt("TW_MAX_FILES", 20),
		MaxFileSize:  int64(getEnvInt("TW_MAX_FILE_SIZE", 10<<20)),
		AllowedTypes: getEnvList("TW_ALLOWED_TYPES", []string{"image/jpeg", "image/png", "image/jpg"}),
		RejectPolicy: rejectPolicy(getEnv("TW_REJECT_POLICY", string(RejectAbort))),
		Parallelism:  getEnvInt("TW_CROP_PARALLELISM", 4),
		CropTimeout:  getEnvDuration("TW_CROP_TIMEOUT", 30*time.Second),
		BatchTimeout: getEnvDuration("TW_BATCH_TIMEOUT", 5*time.Minute),
		Retention:    getEnvDuration("TW_RETENTION", 24*time.Hour),
	}
}

// AllowsType reports whether the declared MIME type is on the allow-list.
func (c *Config) AllowsType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range c.AllowedTypes {
		if mimeType == t {
			return true
		}
	}
	return false
}

func rejectPolicy(v string) RejectPolicy {
	if RejectPolicy(v) == RejectSkip {
		return RejectSkip
	}
	return RejectAbort
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
