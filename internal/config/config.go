package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"go.uber.org/zap/zapcore"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	LogLevel           logging.Level

	DataDir      string
	SnapshotPath string
	SettingsPath string
	LogoDir      string

	PollFastInterval     time.Duration
	PollSlowInterval     time.Duration
	SnapshotCoalesce     time.Duration
	NotificationGrace    time.Duration
	NotificationRetry    time.Duration
	ListenerDebounce     time.Duration
	GoalFlagTTL          time.Duration
	ScoreDeferralRetries int

	ESPNTimeout              time.Duration
	ESPNMaxRetries           int
	ESPNUserAgent            string
	ESPNCircuitEnabled       bool
	ESPNCircuitFailureCount  int
	ESPNCircuitOpenTimeout   time.Duration
	ESPNCircuitHalfOpenReq   int
	LogoPrefetchWorkers      int
	LogoPrefetchTimeout      time.Duration
	WebhookEnabled           bool
	WebhookURL               string
	WebhookToken             string
	WebhookTimeout           time.Duration

	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	dataDir := strings.TrimSpace(getEnv("APP_DATA_DIR", "./data"))
	if dataDir == "" {
		return Config{}, fmt.Errorf("APP_DATA_DIR cannot be empty")
	}

	pollFast, err := time.ParseDuration(getEnv("POLL_FAST_INTERVAL", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POLL_FAST_INTERVAL: %w", err)
	}
	if pollFast <= 0 {
		return Config{}, fmt.Errorf("POLL_FAST_INTERVAL must be > 0")
	}
	pollSlow, err := time.ParseDuration(getEnv("POLL_SLOW_INTERVAL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse POLL_SLOW_INTERVAL: %w", err)
	}
	if pollSlow < pollFast {
		return Config{}, fmt.Errorf("POLL_SLOW_INTERVAL must be >= POLL_FAST_INTERVAL")
	}
	snapshotCoalesce, err := time.ParseDuration(getEnv("SNAPSHOT_COALESCE_WINDOW", "120s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SNAPSHOT_COALESCE_WINDOW: %w", err)
	}
	if snapshotCoalesce <= 0 {
		return Config{}, fmt.Errorf("SNAPSHOT_COALESCE_WINDOW must be > 0")
	}
	notificationGrace, err := time.ParseDuration(getEnv("NOTIFICATION_GRACE", "500ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFICATION_GRACE: %w", err)
	}
	notificationRetry, err := time.ParseDuration(getEnv("NOTIFICATION_RETRY_DELAY", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse NOTIFICATION_RETRY_DELAY: %w", err)
	}
	listenerDebounce, err := time.ParseDuration(getEnv("LISTENER_DEBOUNCE", "300ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LISTENER_DEBOUNCE: %w", err)
	}
	goalFlagTTL, err := time.ParseDuration(getEnv("GOAL_FLAG_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse GOAL_FLAG_TTL: %w", err)
	}
	scoreDeferralRetries, err := getEnvAsInt("SCORE_DEFERRAL_RETRIES", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCORE_DEFERRAL_RETRIES: %w", err)
	}
	if scoreDeferralRetries < 1 {
		return Config{}, fmt.Errorf("SCORE_DEFERRAL_RETRIES must be >= 1")
	}

	espnTimeout, err := time.ParseDuration(getEnv("ESPN_TIMEOUT", "20s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_TIMEOUT: %w", err)
	}
	if espnTimeout <= 0 {
		return Config{}, fmt.Errorf("ESPN_TIMEOUT must be > 0")
	}
	espnMaxRetries, err := getEnvAsInt("ESPN_MAX_RETRIES", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_MAX_RETRIES: %w", err)
	}
	if espnMaxRetries < 0 {
		return Config{}, fmt.Errorf("ESPN_MAX_RETRIES must be >= 0")
	}
	espnCircuitEnabled, err := strconv.ParseBool(getEnv("ESPN_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_ENABLED: %w", err)
	}
	espnCircuitFailureCount, err := getEnvAsInt("ESPN_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if espnCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	espnCircuitOpenTimeout, err := time.ParseDuration(getEnv("ESPN_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if espnCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	espnCircuitHalfOpenReq, err := getEnvAsInt("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse ESPN_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if espnCircuitHalfOpenReq < 1 {
		return Config{}, fmt.Errorf("ESPN_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	logoWorkers, err := getEnvAsInt("LOGO_PREFETCH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse LOGO_PREFETCH_WORKERS: %w", err)
	}
	if logoWorkers < 1 {
		return Config{}, fmt.Errorf("LOGO_PREFETCH_WORKERS must be >= 1")
	}
	logoTimeout, err := time.ParseDuration(getEnv("LOGO_PREFETCH_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LOGO_PREFETCH_TIMEOUT: %w", err)
	}

	webhookEnabled, err := strconv.ParseBool(getEnv("WEBHOOK_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_ENABLED: %w", err)
	}
	webhookURL := strings.TrimSpace(getEnv("WEBHOOK_URL", ""))
	if webhookEnabled && webhookURL == "" {
		return Config{}, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_ENABLED=true")
	}
	webhookTimeout, err := time.ParseDuration(getEnv("WEBHOOK_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEBHOOK_TIMEOUT: %w", err)
	}
	if webhookTimeout <= 0 {
		return Config{}, fmt.Errorf("WEBHOOK_TIMEOUT must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	serviceName := getEnv("APP_SERVICE_NAME", "scorewatch")

	return Config{
		AppEnv:             appEnv,
		ServiceName:        serviceName,
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		DataDir:      dataDir,
		SnapshotPath: getEnv("APP_SNAPSHOT_PATH", dataDir+"/events.json"),
		SettingsPath: getEnv("APP_SETTINGS_PATH", dataDir+"/settings.json"),
		LogoDir:      getEnv("APP_LOGO_DIR", dataDir+"/logos"),

		PollFastInterval:     pollFast,
		PollSlowInterval:     pollSlow,
		SnapshotCoalesce:     snapshotCoalesce,
		NotificationGrace:    notificationGrace,
		NotificationRetry:    notificationRetry,
		ListenerDebounce:     listenerDebounce,
		GoalFlagTTL:          goalFlagTTL,
		ScoreDeferralRetries: scoreDeferralRetries,

		ESPNTimeout:             espnTimeout,
		ESPNMaxRetries:          espnMaxRetries,
		ESPNUserAgent:           getEnv("ESPN_USER_AGENT", serviceName+"/"+getEnv("APP_SERVICE_VERSION", "dev")),
		ESPNCircuitEnabled:      espnCircuitEnabled,
		ESPNCircuitFailureCount: espnCircuitFailureCount,
		ESPNCircuitOpenTimeout:  espnCircuitOpenTimeout,
		ESPNCircuitHalfOpenReq:  espnCircuitHalfOpenReq,
		LogoPrefetchWorkers:     logoWorkers,
		LogoPrefetchTimeout:     logoTimeout,
		WebhookEnabled:          webhookEnabled,
		WebhookURL:              webhookURL,
		WebhookToken:            strings.TrimSpace(getEnv("WEBHOOK_TOKEN", "")),
		WebhookTimeout:          webhookTimeout,

		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAppName:           getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}, nil
}

func parseAppEnv(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case EnvDev, EnvStage, EnvProd:
		return v, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int %q: %w", raw, err)
	}
	return value, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
