package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.mau.fi/whatsmeow/proto/waCompanionReg"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Whatsapp   WhatsappConfig
	Community  CommunityConfig
	Speech     SpeechConfig
	LLM        LLMConfig
	NSFW       NSFWConfig
	WorkerPool WorkerPoolConfig
	Bot        BotRuntimeConfig
	Bots       []BotConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	OS                 string
	Platform           waCompanionReg.DeviceProps_PlatformType
	BasicAuth          []string
	BasePath           string
	TrustedProxies     []string
	BaseUrl            string
	CorsAllowedOrigins []string
	ServerID           string
}

type PathsConfig struct {
	Storages string
	Data     string
	Temp     string
	Public   string
	Voices   string
}

type DatabaseConfig struct {
	// StorageDriver selects the app persistence: json (flat files), sqlite or postgres.
	StorageDriver   string
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string // File path for SQLite, DB Name for Postgres
	SessionDriver   string
	SessionURI      string
	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

type WhatsappConfig struct {
	LogLevel        string
	DefaultPrefix   string
	SafeMode        bool
	SuperAdmins     []string
	MaxDownloadSize int64
	TypeUser        string
	TypeGroup       string
}

// CommunityConfig lists the chats where bots publish operational notices.
type CommunityConfig struct {
	Logs      string
	Invites   string
	Avisos    string
	Interacao string
}

type SpeechConfig struct {
	AllTalkAPI    string
	FFmpegPath    string
	WhisperPath   string
	WhisperModel  string
	Language      string
	STTProvider   string
	PunctuateSTT  bool
	LongTextLimit int
}

type LLMConfig struct {
	Provider         string
	OpenRouterAPIKey string
	OpenRouterURL    string
	OpenRouterModel  string
	OpenAIAPIKey     string
	OpenAIModel      string
	GeminiAPIKey     string
	GeminiModel      string
	Temperature      float64
	MaxTokens        int
	Timeout          time.Duration
}

type NSFWConfig struct {
	APIURL    string
	Threshold float64
}

type WorkerPoolConfig struct {
	Size       int
	QueueSize  int
	JobTimeout time.Duration
}

// BotRuntimeConfig tunes the behaviour shared by every bot.
type BotRuntimeConfig struct {
	ConfigFile         string
	SendRatePerSecond  float64
	SendBurst          int
	ReplyDelay         time.Duration
	CommandCooldown    time.Duration
	LoadReportInterval time.Duration
	MessageCacheTTL    time.Duration
	HistorySize        int
	InviteReasonWait   time.Duration
}

// Global provides access to the loaded configuration globally
var Global *Config

// LoadConfig loads configuration from Environment Variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := getEnvBool("APP_DEBUG", false) || getEnvBool("DEBUG", false)

	var basicAuth []string
	if v := os.Getenv("APP_BASIC_AUTH"); v != "" {
		basicAuth = strings.Split(v, ",")
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.4.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		OS:                 getEnv("APP_OS", "ravenabot"),
		Platform:           waCompanionReg.DeviceProps_CHROME,
		BasicAuth:          basicAuth,
		BasePath:           getEnv("APP_BASE_PATH", ""),
		BaseUrl:            getEnv("APP_BASE_URL", "http://localhost:3000"),
		CorsAllowedOrigins: corsOrigins,
		ServerID:           getEnv("SERVER_ID", ""),
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		Storages: baseDir,
		Data:     getEnv("PATH_DATA", filepath.Join(baseDir, "data")),
		Temp:     getEnv("PATH_TEMP", "temp"),
		Public:   getEnv("PATH_PUBLIC", "public"),
		Voices:   getEnv("PATH_VOICES", "voices"),
	}

	dbCfg := DatabaseConfig{
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", "json")),
		Driver:          getEnv("DB_DRIVER", "sqlite"),
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "ravena.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		SessionDriver:   getEnv("SESSION_DB_DRIVER", "sqlite3"),
		SessionURI:      getEnv("SESSION_DB_URI", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "ravena:"),
	}
	if dbCfg.Driver == "postgres" && os.Getenv("DB_NAME") == "" {
		dbCfg.Name = "ravena"
	}

	waCfg := WhatsappConfig{
		LogLevel:        getEnv("WHATSAPP_LOG_LEVEL", "ERROR"),
		DefaultPrefix:   getEnvRaw("DEFAULT_PREFIX", "!"),
		SafeMode:        getEnvBool("SAFE_MODE", false),
		SuperAdmins:     splitList(os.Getenv("SUPER_ADMINS")),
		MaxDownloadSize: getEnvInt64("WHATSAPP_MAX_DOWNLOAD_SIZE", 50000000),
		TypeUser:        "@s.whatsapp.net",
		TypeGroup:       "@g.us",
	}

	communityCfg := CommunityConfig{
		Logs:      getEnv("GRUPO_LOGS", ""),
		Invites:   getEnv("GRUPO_INVITES", ""),
		Avisos:    getEnv("GRUPO_AVISOS", ""),
		Interacao: getEnv("GRUPO_INTERACAO", ""),
	}

	speechCfg := SpeechConfig{
		AllTalkAPI:    strings.TrimSuffix(getEnv("ALLTALK_API", "http://localhost:7851"), "/"),
		FFmpegPath:    getEnv("FFMPEG_PATH", "ffmpeg"),
		WhisperPath:   getEnv("WHISPER_PATH", "whisper"),
		WhisperModel:  getEnv("WHISPER_MODEL", "large-v3-turbo"),
		Language:      getEnv("SPEECH_LANGUAGE", "pt"),
		STTProvider:   strings.ToLower(getEnv("STT_PROVIDER", "whisper")),
		PunctuateSTT:  getEnvBool("STT_PUNCTUATE", false),
		LongTextLimit: getEnvInt("TTS_LONG_TEXT_LIMIT", 150),
	}

	llmCfg := LLMConfig{
		Provider:         strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterURL:    getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:  getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		Temperature:      getEnvFloat("LLM_TEMPERATURE", 0.7),
		MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 500),
		Timeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
	}

	botCfg := BotRuntimeConfig{
		ConfigFile:         getEnv("BOTS_CONFIG", "bots.json"),
		SendRatePerSecond:  getEnvFloat("BOT_SEND_RATE", 2),
		SendBurst:          getEnvInt("BOT_SEND_BURST", 5),
		ReplyDelay:         getEnvDuration("BOT_REPLY_DELAY", 0),
		CommandCooldown:    getEnvDuration("BOT_COMMAND_COOLDOWN", 0),
		LoadReportInterval: getEnvDuration("LOAD_REPORT_INTERVAL", 10*time.Minute),
		MessageCacheTTL:    getEnvDuration("MESSAGE_CACHE_TTL", 30*time.Minute),
		HistorySize:        getEnvInt("SUMMARY_HISTORY_SIZE", 300),
		InviteReasonWait:   getEnvDuration("INVITE_REASON_WAIT", 5*time.Minute),
	}

	cfg := &Config{
		App:       appCfg,
		Paths:     pathsCfg,
		Database:  dbCfg,
		Whatsapp:  waCfg,
		Community: communityCfg,
		Speech:    speechCfg,
		LLM:       llmCfg,
		NSFW:      NSFWConfig{APIURL: getEnv("NSFW_API_URL", ""), Threshold: getEnvFloat("NSFW_THRESHOLD", 0.7)},
		WorkerPool: WorkerPoolConfig{
			Size:       getEnvInt("MESSAGE_WORKER_POOL_SIZE", 20),
			QueueSize:  getEnvInt("MESSAGE_WORKER_QUEUE_SIZE", 1000),
			JobTimeout: getEnvDuration("MESSAGE_WORKER_JOB_TIMEOUT", 3*time.Minute),
		},
		Bot: botCfg,
	}

	switch dbCfg.StorageDriver {
	case "json", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", dbCfg.StorageDriver)
	}

	Global = cfg
	return cfg, nil
}

// SessionURIFor returns the whatsmeow store address for a bot.
func (c *Config) SessionURIFor(botID string) string {
	if c.Database.SessionURI != "" {
		return c.Database.SessionURI
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(c.Paths.Storages, "whatsapp-"+botID+".db"))
}

// IsSuperAdmin reports whether the given author id belongs to a configured super admin.
func (c *Config) IsSuperAdmin(authorID string) bool {
	user := strings.SplitN(authorID, "@", 2)[0]
	user = strings.SplitN(user, ":", 2)[0]
	if user == "" {
		return false
	}
	for _, admin := range c.Whatsapp.SuperAdmins {
		admin = strings.SplitN(admin, "@", 2)[0]
		if admin != "" && admin == user {
			return true
		}
	}
	return false
}
