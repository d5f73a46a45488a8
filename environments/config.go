package environments

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	WhatsApp WhatsAppConfig
	Maps     MapsConfig
	OTP      OTPConfig
	Location LocationConfig
	Message  MessageConfig
	Alert    AlertConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port string
}

type LogConfig struct {
	Level string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WhatsAppConfig carries the Cloud API credentials. It is passed explicitly to
// the dispatch client; nothing reads these values from globals.
type WhatsAppConfig struct {
	BaseURL           string
	Token             string
	PhoneNumberID     string
	BusinessAccountID string
	APIVersion        string
	MinTokenLength    int
	Timeout           time.Duration
	RetryCount        int
}

type MapsConfig struct {
	BaseURL          string
	APIKey           string
	PrimaryLanguage  string
	FallbackLanguage string
	FallbackAddress  string
	Timeout          time.Duration
}

type OTPConfig struct {
	TemplateName            string
	TemplateLanguage        string
	VerificationMessage     string
	TTL                     time.Duration
	SendsPerMinute          int
	AllowInsecureDemoVerify bool
}

// LocationConfig bounds how long an untouched picker session is kept.
type LocationConfig struct {
	SessionIdleTimeout time.Duration
	SweepInterval      time.Duration
}

type MessageConfig struct {
	BatchSize        int
	SendInterval     time.Duration
	MaxContentLength int
}

type AlertConfig struct {
	WebhookURL     string
	IterationCount int
}

type AuthConfig struct {
	MessagesAPIKey  string
	SchedulerAPIKey string
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port: GetEnv("SERVER_PORT", "8080"),
		},
		Log: LogConfig{
			Level: GetEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "amwaj"),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", "amwaj_messages"),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:           GetEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com"),
			Token:             GetEnv("WHATSAPP_PERMANENT_TOKEN", ""),
			PhoneNumberID:     GetEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BusinessAccountID: GetEnv("WHATSAPP_BUSINESS_ACCOUNT_ID", ""),
			APIVersion:        GetEnv("WHATSAPP_API_VERSION", "v23.0"),
			MinTokenLength:    GetEnvAsInt("WHATSAPP_MIN_TOKEN_LENGTH", 200),
			Timeout:           GetEnvAsDuration("WHATSAPP_TIMEOUT", 15*time.Second),
			RetryCount:        GetEnvAsInt("WHATSAPP_RETRY_COUNT", 2),
		},
		Maps: MapsConfig{
			BaseURL:          GetEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com"),
			APIKey:           GetEnv("GOOGLE_MAPS_API_KEY", ""),
			PrimaryLanguage:  GetEnv("GEOCODE_PRIMARY_LANGUAGE", "ar"),
			FallbackLanguage: GetEnv("GEOCODE_FALLBACK_LANGUAGE", "en"),
			FallbackAddress:  GetEnv("GEOCODE_FALLBACK_ADDRESS", "العنوان غير متوفر"),
			Timeout:          GetEnvAsDuration("GEOCODE_TIMEOUT", 10*time.Second),
		},
		OTP: OTPConfig{
			TemplateName:            GetEnv("OTP_TEMPLATE_NAME", "confirm"),
			TemplateLanguage:        GetEnv("OTP_TEMPLATE_LANGUAGE", "ar"),
			VerificationMessage:     GetEnv("OTP_VERIFICATION_MESSAGE", "تم التحقق من رمز التفعيل بنجاح! مرحباً بك في أمواج"),
			TTL:                     GetEnvAsDuration("OTP_TTL", 10*time.Minute),
			SendsPerMinute:          GetEnvAsInt("OTP_SENDS_PER_MINUTE", 1),
			AllowInsecureDemoVerify: GetEnvAsBool("OTP_ALLOW_INSECURE_DEMO_VERIFY", false),
		},
		Location: LocationConfig{
			SessionIdleTimeout: GetEnvAsDuration("LOCATION_SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepInterval:      GetEnvAsDuration("LOCATION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Message: MessageConfig{
			BatchSize:        GetEnvAsInt("MESSAGE_BATCH_SIZE", 2),
			SendInterval:     time.Duration(GetEnvAsInt("MESSAGE_SEND_INTERVAL_MINUTES", 2)) * time.Minute,
			MaxContentLength: GetEnvAsInt("MESSAGE_MAX_CONTENT_LENGTH", 4096),
		},
		Alert: AlertConfig{
			WebhookURL:     GetEnv("ALERT_WEBHOOK_URL", ""),
			IterationCount: GetEnvAsInt("ALERT_ITERATION_COUNT", 0),
		},
		Auth: AuthConfig{
			MessagesAPIKey:  GetEnv("MESSAGES_API_KEY", ""),
			SchedulerAPIKey: GetEnv("SCHEDULER_API_KEY", ""),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
