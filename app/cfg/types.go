package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Telegram configuration
	TelegramBotToken    string
	TelegramMainChat    string
	TelegramErrorChat   string
	TelegramGeneralChat string
	TelegramTestMode    bool
	TelegramTestChat    string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Tor proxy configuration
	TorEnabled bool
	TorHost    string
	TorPort    int

	// Application configuration
	DistrictsDir      string
	DataDir           string
	MaxPages          int
	SchedulerInterval int // minutes

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}
