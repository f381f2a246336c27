package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/streamhub/notifier/internal/domain"
)

const appDirName = "streamhub-admin"

// Config holds the notifier's runtime configuration loaded from environment
// variables. Every field has a default; only DATABASE_URL is required.
type Config struct {
	DatabaseURL string
	DBMaxConns  int32

	// Browser
	DebugPort          int
	DebuggerWait       time.Duration
	HelperScriptPath   string
	HelperGrace        time.Duration
	BrowserProcessName string

	// Delivery
	OpenSpacing   time.Duration
	EditorTimeout time.Duration
	ConfirmWait   time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration

	Bootstrap
}

// Bootstrap is where a run logs and where its payload comes from. It has
// no required fields and is loaded before Config.
type Bootstrap struct {
	// Output
	LogDir      string
	LogLevel    string
	MetricsFile string
	RunID       string

	// Payload
	ItemsJSON    string
	StdinTimeout time.Duration
}

func LoadBootstrap() Bootstrap {
	loadDotEnv()

	return Bootstrap{
		LogDir:      getEnv("NOTIFY_LOG_DIR", DefaultLogDir()),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MetricsFile: os.Getenv("NOTIFY_METRICS_FILE"),
		RunID:       os.Getenv("NOTIFY_RUN_ID"),

		ItemsJSON:    os.Getenv("NOTIFY_ITEMS_JSON"),
		StdinTimeout: 1500 * time.Millisecond,
	}
}

// MinOpenSpacing is the floor applied to OPEN_SPACING_MS.
const MinOpenSpacing = 500 * time.Millisecond

func Load() (*Config, error) {
	loadDotEnv()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, domain.ErrMissingDatabaseURL
	}

	spacing := time.Duration(getInt("OPEN_SPACING_MS", 8000)) * time.Millisecond
	if spacing < MinOpenSpacing {
		spacing = MinOpenSpacing
	}

	return &Config{
		DatabaseURL: dbURL,
		DBMaxConns:  int32(getInt("DB_MAX_CONNS", 2)),

		DebugPort:          getInt("DEBUG_PORT", 9222),
		DebuggerWait:       getDuration("DEBUGGER_WAIT", 25*time.Second),
		HelperScriptPath:   getEnv("WA_BAT_PATH", defaultHelperPath()),
		HelperGrace:        1200 * time.Millisecond,
		BrowserProcessName: getEnv("BROWSER_PROCESS_NAME", "msedge.exe"),

		OpenSpacing:   spacing,
		EditorTimeout: getDuration("EDITOR_TIMEOUT", 60*time.Second),
		ConfirmWait:   getDuration("CONFIRM_WAIT", 10*time.Second),
		MaxAttempts:   getInt("SEND_MAX_ATTEMPTS", 3),
		RetryBackoff:  getDuration("SEND_RETRY_BACKOFF", 1500*time.Millisecond),

		Bootstrap: LoadBootstrap(),
	}, nil
}

// ServerConfig holds the trigger service configuration.
type ServerConfig struct {
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Optional; only needed for MIGRATE_ON_START.
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsPath string

	NotifierBin      string
	LogDir           string
	SpawnMinInterval time.Duration

	// Periodic expiration reminders; zero disables the scheduler.
	ReminderInterval   time.Duration
	ReminderWithinDays int
}

func LoadServer() (*ServerConfig, error) {
	loadDotEnv()

	return &ServerConfig{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrateOnStart: getBool("MIGRATE_ON_START", false),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		NotifierBin:      getEnv("NOTIFIER_BIN", defaultNotifierBin()),
		LogDir:           getEnv("NOTIFY_LOG_DIR", DefaultLogDir()),
		SpawnMinInterval: getDuration("SPAWN_MIN_INTERVAL", 30*time.Second),

		ReminderInterval:   getDuration("REMINDER_INTERVAL", 0),
		ReminderWithinDays: getInt("REMINDER_WITHIN_DAYS", domain.DefaultReminderDays),
	}, nil
}

// DefaultLogDir is the per-user application data directory for run logs.
func DefaultLogDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDirName, "logs")
}

func defaultHelperPath() string {
	if runtime.GOOS == "windows" {
		return `C:\wa-bot\start-edge-debug.bat`
	}
	return "/usr/local/bin/start-edge-debug.sh"
}

func defaultNotifierBin() string {
	if runtime.GOOS == "windows" {
		return "notifier.exe"
	}
	return "notifier"
}

// loadDotEnv loads .env from the working directory or its parent.
// Variables already present in the environment are not overridden.
func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
