package cfg

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version == "" {
		return "unknown"
	}
	return Version
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./funeral.db" description:"Path to the sqlite database file"`

	// Telegram configuration
	TelegramBotToken    string `long:"telegram-bot-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required)"`
	TelegramMainChat    string `long:"telegram-funeral-main" env:"TELEGRAM_FUNERAL_MAIN" description:"Combined channel receiving every district's notices"`
	TelegramErrorChat   string `long:"telegram-error-channel" env:"TELEGRAM_ERROR_CHANNEL" description:"Channel for operator error reports"`
	TelegramGeneralChat string `long:"telegram-general-channel" env:"TELEGRAM_GENERAL_CHANNEL" description:"Channel for general operator notices"`
	TelegramTestMode    bool   `long:"telegram-test-mode" env:"TELEGRAM_TEST_MODE" description:"Redirect all messages to the test channel"`
	TelegramTestChat    string `long:"telegram-test-channel" env:"TELEGRAM_TEST_CHANNEL" description:"Channel used when test mode is enabled"`

	// OpenAI configuration
	OpenAIAPIKey string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key (required)"`
	OpenAIModel  string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o" description:"Model used for notice field extraction"`

	// Tor proxy configuration
	TorEnabled bool   `long:"tor-enabled" env:"TOR_ENABLED" description:"Enable Tor fallback for blocked sources"`
	TorHost    string `long:"tor-host" env:"TOR_HOST" default:"127.0.0.1" description:"Tor socks5 proxy host"`
	TorPort    int    `long:"tor-port" env:"TOR_PORT" default:"9050" description:"Tor socks5 proxy port"`

	// Application configuration
	DistrictsDir      string `long:"districts-dir" env:"DISTRICTS_DIR" default:"./districts" description:"Directory containing district site definition files"`
	DataDir           string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory containing legacy JSON files for --migrate"`
	MaxPages          int    `long:"max-pages" env:"MAX_PAGE_NUM" default:"1" description:"Maximum listing pages scraped per district"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULE_INTERVAL_MINUTES" default:"15" description:"Scheduler interval in minutes"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"Asia/Seoul" description:"Timezone for timestamps and the night-time window"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	// Run modes
	Once    bool `long:"once" description:"Run the pipeline once and exit"`
	Migrate bool `long:"migrate" description:"Import legacy JSON data into the database and exit"`
	SkipRaw bool `long:"skip-raw" description:"Skip the raw ingestion stage (analyze and send only)"`
	Cleanup bool `long:"cleanup" description:"Remove duplicate and orphaned sent markers and exit"`
}

// Modes holds the mutually exclusive run modes requested on the command line.
type Modes struct {
	Once    bool
	Migrate bool
	SkipRaw bool
	Cleanup bool
}

var globalCfg *Cfg

func Load() (*Cfg, *Modes, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil, nil
			}
		}
		return nil, nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.TelegramBotToken == "" {
		return nil, nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if raw.OpenAIAPIKey == "" {
		return nil, nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		TelegramBotToken:    raw.TelegramBotToken,
		TelegramMainChat:    raw.TelegramMainChat,
		TelegramErrorChat:   raw.TelegramErrorChat,
		TelegramGeneralChat: raw.TelegramGeneralChat,
		TelegramTestMode:    raw.TelegramTestMode,
		TelegramTestChat:    raw.TelegramTestChat,
		OpenAIAPIKey:        raw.OpenAIAPIKey,
		OpenAIModel:         raw.OpenAIModel,
		TorEnabled:          raw.TorEnabled,
		TorHost:             raw.TorHost,
		TorPort:             raw.TorPort,
		DistrictsDir:        raw.DistrictsDir,
		DataDir:             raw.DataDir,
		MaxPages:            raw.MaxPages,
		SchedulerInterval:   raw.SchedulerInterval,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	// Test mode reroutes the combined and error channels as well, so a
	// misconfigured test run can never reach production channels.
	if cfg.TelegramTestMode {
		cfg.TelegramMainChat = cfg.TelegramTestChat
		cfg.TelegramErrorChat = cfg.TelegramTestChat
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	modes := &Modes{
		Once:    raw.Once,
		Migrate: raw.Migrate,
		SkipRaw: raw.SkipRaw,
		Cleanup: raw.Cleanup,
	}

	return cfg, modes, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
