// Command TriagePipe runs the symptom triage chatbot: an HTTP/websocket/Twilio
// server, a terminal chat, and the data import and model training tools.
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/BTreeMap/TriagePipe/internal/api"
	"github.com/BTreeMap/TriagePipe/internal/extract"
	"github.com/BTreeMap/TriagePipe/internal/store"
	"github.com/BTreeMap/TriagePipe/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for TriagePipe state data
	DefaultStateDir = "/var/lib/triagepipe"
	// DefaultDBFileName is the SQLite catalog created by `import` when no DATABASE_URL is set
	DefaultDBFileName = "triagepipe.db"
	// DefaultModelFileName is the classifier artifact inside the state directory
	DefaultModelFileName = "model.json"
)

// logLevel is shared by the default handler so flags can change it after startup.
var logLevel = new(slog.LevelVar)

func main() {
	initializeLogger()
	config := loadEnvironmentConfig()

	if err := newRootCmd(&config).Execute(); err != nil {
		slog.Error("TriagePipe failed", "error", err)
		os.Exit(1)
	}
}

// Config holds environment configuration. Flags on the root command override it.
type Config struct {
	StateDir        string
	APIAddr         string
	ModelPath       string
	LexiconPath     string
	DoctorsCSV      string
	DescriptionsCSV string
	PrecautionsCSV  string
	DatabaseURL     string
	OpenAIKey       string
	LLMFallback     bool
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	PublicURL       string
	SessionTTL      time.Duration
	MaxSessions     int
	Selector        string
	MatchThreshold  int
	LogLevel        string
}

// initializeLogger sets up structured logging; the level starts at debug and
// is adjusted once configuration is known.
func initializeLogger() {
	logLevel.Set(slog.LevelDebug)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:        os.Getenv("TRIAGEPIPE_STATE_DIR"),
		APIAddr:         os.Getenv("API_ADDR"),
		ModelPath:       os.Getenv("TRIAGEPIPE_MODEL_PATH"),
		LexiconPath:     os.Getenv("TRIAGEPIPE_LEXICON_PATH"),
		DoctorsCSV:      os.Getenv("TRIAGEPIPE_DOCTORS_CSV"),
		DescriptionsCSV: os.Getenv("TRIAGEPIPE_DESCRIPTIONS_CSV"),
		PrecautionsCSV:  os.Getenv("TRIAGEPIPE_PRECAUTIONS_CSV"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		LLMFallback:     util.ParseBoolEnv("TRIAGEPIPE_LLM_FALLBACK", false),
		TwilioSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:      os.Getenv("TWILIO_FROM_NUMBER"),
		PublicURL:       os.Getenv("TRIAGEPIPE_PUBLIC_URL"),
		SessionTTL:      util.ParseDurationEnv("TRIAGEPIPE_SESSION_TTL", store.DefaultSessionTTL),
		MaxSessions:     util.ParseIntEnv("TRIAGEPIPE_MAX_SESSIONS", store.DefaultMaxSessions),
		Selector:        os.Getenv("TRIAGEPIPE_SELECTOR"),
		MatchThreshold:  util.ParseIntEnv("TRIAGEPIPE_MATCH_THRESHOLD", extract.DefaultThreshold),
		LogLevel:        os.Getenv("TRIAGEPIPE_LOG_LEVEL"),
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No TRIAGEPIPE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}
	if config.Selector == "" {
		config.Selector = "random"
	}

	slog.Debug("environment variables loaded",
		"TRIAGEPIPE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"TRIAGEPIPE_MODEL_PATH", config.ModelPath,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"TRIAGEPIPE_LLM_FALLBACK", config.LLMFallback,
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "",
		"TRIAGEPIPE_PUBLIC_URL", config.PublicURL,
		"TRIAGEPIPE_SELECTOR", config.Selector)

	return config
}

// resolvePaths fills the state-directory defaults that depend on the final --state-dir.
func (c *Config) resolvePaths() {
	if c.ModelPath == "" {
		c.ModelPath = filepath.Join(c.StateDir, DefaultModelFileName)
	}
	if c.DatabaseURL == "" {
		local := c.localDBPath()
		if _, err := os.Stat(local); err == nil {
			c.DatabaseURL = local
			slog.Debug("Using catalog from state directory", "sqlite_path", local)
		}
	}
}

func (c *Config) localDBPath() string {
	return filepath.Join(c.StateDir, DefaultDBFileName)
}

// newRootCmd builds the command tree. Persistent flags default to the environment values in config.
func newRootCmd(config *Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "TriagePipe",
		Short: "Symptom triage chatbot with disease prediction and doctor referral",
		Long: `TriagePipe chats with a patient about their symptoms, predicts a likely
condition with a naive Bayes model, and refers them to matching doctors.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel.Set(parseLogLevel(config.LogLevel))
			config.resolvePaths()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&config.StateDir, "state-dir", config.StateDir, "state directory for TriagePipe data (overrides $TRIAGEPIPE_STATE_DIR)")
	flags.StringVar(&config.ModelPath, "model", config.ModelPath, "classifier artifact (overrides $TRIAGEPIPE_MODEL_PATH, default <state-dir>/model.json)")
	flags.StringVar(&config.LexiconPath, "lexicon", config.LexiconPath, "symptom lexicon YAML (overrides $TRIAGEPIPE_LEXICON_PATH, default built in)")
	flags.StringVar(&config.DoctorsCSV, "doctors-csv", config.DoctorsCSV, "doctor directory CSV (overrides $TRIAGEPIPE_DOCTORS_CSV)")
	flags.StringVar(&config.DescriptionsCSV, "descriptions-csv", config.DescriptionsCSV, "disease descriptions CSV (overrides $TRIAGEPIPE_DESCRIPTIONS_CSV)")
	flags.StringVar(&config.PrecautionsCSV, "precautions-csv", config.PrecautionsCSV, "disease precautions CSV (overrides $TRIAGEPIPE_PRECAUTIONS_CSV)")
	flags.StringVar(&config.DatabaseURL, "db-dsn", config.DatabaseURL, "doctor and disease catalog DSN, postgres or sqlite path (overrides $DATABASE_URL)")
	flags.StringVar(&config.OpenAIKey, "openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)")
	flags.BoolVar(&config.LLMFallback, "llm-fallback", config.LLMFallback, "ask the LLM when fuzzy matching finds no symptom (overrides $TRIAGEPIPE_LLM_FALLBACK)")
	flags.StringVar(&config.Selector, "selector", config.Selector, "targeted question strategy: random or importance (overrides $TRIAGEPIPE_SELECTOR)")
	flags.IntVar(&config.MatchThreshold, "match-threshold", config.MatchThreshold, "fuzzy match acceptance score 0-100 (overrides $TRIAGEPIPE_MATCH_THRESHOLD)")
	flags.StringVar(&config.LogLevel, "log-level", config.LogLevel, "debug, info, warn or error (overrides $TRIAGEPIPE_LOG_LEVEL)")

	root.AddCommand(
		newServeCmd(config),
		newChatCmd(config),
		newImportCmd(config),
		newTrainCmd(config),
	)
	return root
}
