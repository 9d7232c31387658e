package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config holds the project config values
type Config struct {
	Env          string
	Port         string
	BaseURL      string
	DBDriver     string
	URL          string
	DatabaseName string
	DatabaseDSN  string

	JWTSecret  string
	SessionTTL time.Duration

	SendGridAPIKey string
	MailFrom       string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	ExportS3Bucket string
	ExportS3Region string

	SweepSchedule  string
	OrphanGrace    time.Duration
	RequestTimeout time.Duration
}

// New sets up all config related services. Values come from the environment,
// optionally seeded from a .env file; a yaml file named by CONFIG_FILE fills
// in whatever the environment leaves empty.
func New() *Config {
	_ = godotenv.Load()

	file, err := readFile(os.Getenv("CONFIG_FILE"))
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return file[key]
	}

	env := withDefault(lookup("ENV"), "local")

	//setup zap logger and replace default logger
	logger, lerr := setLogger(env)
	if lerr != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	if err != nil {
		zap.S().Warnw("failed to read config file, using environment only", "error", err)
	}

	return &Config{
		Env:                 env,
		Port:                withDefault(lookup("PORT"), "8080"),
		BaseURL:             lookup("BASE_URL"),
		DBDriver:            withDefault(strings.ToLower(lookup("DB_DRIVER")), "mongo"),
		URL:                 lookup("DB_URI"),
		DatabaseName:        lookup("DB_NAME"),
		DatabaseDSN:         lookup("DATABASE_DSN"),
		JWTSecret:           lookup("JWT_SECRET"),
		SessionTTL:          durationOr(lookup("SESSION_TTL"), 24*time.Hour),
		SendGridAPIKey:      lookup("SENDGRID_API_KEY"),
		MailFrom:            withDefault(lookup("MAIL_FROM"), "no-reply@police-investigations.app"),
		CloudinaryCloudName: lookup("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    lookup("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: lookup("CLOUDINARY_API_SECRET"),
		ExportS3Bucket:      lookup("EXPORT_S3_BUCKET"),
		ExportS3Region:      lookup("EXPORT_S3_REGION"),
		SweepSchedule:       withDefault(lookup("SWEEP_SCHEDULE"), "@every 15m"),
		OrphanGrace:         durationOr(lookup("ORPHAN_GRACE"), 15*time.Minute),
		RequestTimeout:      durationOr(lookup("REQUEST_TIMEOUT"), 30*time.Second),
	}
}

// readFile parses a flat yaml mapping of ENV_NAME: value pairs
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return map[string]string{}, err
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(b, &values); err != nil {
		return map[string]string{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return values, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// setLogger picks the zap preset for the given environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	case "local":
		return zap.NewExample(), nil
	}
	return nil, fmt.Errorf("unknown environment %q", env)
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
