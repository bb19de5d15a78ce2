package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr string
	Env  string

	// model provider (OpenAI-compatible chat completions)
	AIBaseURL       string
	AIAPIKey        string
	AIModel         string
	ReasoningEffort string

	// moderation
	ModerationBaseURL string
	ModerationAPIKey  string
	ModerationModel   string

	// orchestration
	MaxSteps    int
	TurnTimeout time.Duration

	// vector database (retrieval collaborator)
	VectorDBHost      string
	VectorDBAPIKey    string
	VectorDBNamespace string
	VectorDBTopK      int

	// web search collaborator
	WebSearchBaseURL string
	WebSearchAPIKey  string

	// retrieval access control
	CanAccessFinancials bool

	// safety alerts
	AlertRecipient   string
	AlertWebhookURL  string
	ResendAPIKey     string
	SendGridAPIKey   string
	AlertAMQPURL     string
	AlertAMQPQueue   string
	AlertJournalPath string

	// client session store
	ServerURL     string
	SessionsDir   string
	SessionsRedis string
	MaxSessions   int
}

func Load() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	aiBaseURL := os.Getenv("AI_BASE_URL")
	if aiBaseURL == "" {
		aiBaseURL = "https://api.openai.com/v1"
	}
	aiModel := os.Getenv("AI_MODEL")
	if aiModel == "" {
		aiModel = "gpt-4.1-mini"
	}
	reasoningEffort := os.Getenv("AI_REASONING_EFFORT")
	if reasoningEffort == "" {
		reasoningEffort = "low"
	}

	moderationBaseURL := os.Getenv("MODERATION_BASE_URL")
	if moderationBaseURL == "" {
		moderationBaseURL = aiBaseURL
	}
	moderationAPIKey := os.Getenv("MODERATION_API_KEY")
	if moderationAPIKey == "" {
		moderationAPIKey = os.Getenv("AI_API_KEY")
	}
	moderationModel := os.Getenv("MODERATION_MODEL")
	if moderationModel == "" {
		moderationModel = "omni-moderation-latest"
	}

	maxSteps := 10
	if v := os.Getenv("MAX_TOOL_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxSteps = n
		}
	}

	turnTimeout := 30 * time.Second
	if v := os.Getenv("TURN_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			turnTimeout = time.Duration(n) * time.Second
		}
	}

	vectorNamespace := os.Getenv("VECTORDB_NAMESPACE")
	if vectorNamespace == "" {
		vectorNamespace = "default"
	}
	vectorTopK := 10
	if v := os.Getenv("VECTORDB_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			vectorTopK = n
		}
	}

	webSearchBaseURL := os.Getenv("WEB_SEARCH_BASE_URL")
	if webSearchBaseURL == "" {
		webSearchBaseURL = "https://api.tavily.com"
	}

	alertQueue := os.Getenv("ALERT_AMQP_QUEUE")
	if alertQueue == "" {
		alertQueue = "safety_alerts"
	}
	alertRecipient := os.Getenv("ALERT_RECIPIENT")
	if alertRecipient == "" {
		alertRecipient = "safety-team@onboardly.ai"
	}

	serverURL := os.Getenv("ONBOARDLY_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
	sessionsDir := os.Getenv("SESSIONS_DIR")
	if sessionsDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			sessionsDir = home + "/.onboardly"
		} else {
			sessionsDir = "."
		}
	}
	maxSessions := 5
	if v := os.Getenv("MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxSessions = n
		}
	}

	return Config{
		Addr: addr,
		Env:  os.Getenv("APP_ENV"),

		AIBaseURL:       aiBaseURL,
		AIAPIKey:        os.Getenv("AI_API_KEY"),
		AIModel:         aiModel,
		ReasoningEffort: reasoningEffort,

		ModerationBaseURL: moderationBaseURL,
		ModerationAPIKey:  moderationAPIKey,
		ModerationModel:   moderationModel,

		MaxSteps:    maxSteps,
		TurnTimeout: turnTimeout,

		VectorDBHost:      os.Getenv("VECTORDB_HOST"),
		VectorDBAPIKey:    os.Getenv("VECTORDB_API_KEY"),
		VectorDBNamespace: vectorNamespace,
		VectorDBTopK:      vectorTopK,

		WebSearchBaseURL: webSearchBaseURL,
		WebSearchAPIKey:  os.Getenv("WEB_SEARCH_API_KEY"),

		CanAccessFinancials: os.Getenv("CAN_ACCESS_FINANCIALS") == "true",

		AlertRecipient:   alertRecipient,
		AlertWebhookURL:  os.Getenv("ALERT_WEBHOOK_URL"),
		ResendAPIKey:     os.Getenv("RESEND_API_KEY"),
		SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
		AlertAMQPURL:     os.Getenv("ALERT_AMQP_URL"),
		AlertAMQPQueue:   alertQueue,
		AlertJournalPath: os.Getenv("ALERT_JOURNAL_PATH"),

		ServerURL:     serverURL,
		SessionsDir:   sessionsDir,
		SessionsRedis: os.Getenv("SESSIONS_REDIS_ADDR"),
		MaxSessions:   maxSessions,
	}
}

func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}
