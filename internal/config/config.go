package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	GCS      GCSConfig
	LLM      LLMConfig
	Payment  PaymentConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Quota    QuotaConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port         string
	Environment  string
	AllowOrigins []string
	BaseURL      string
}

type GCSConfig struct {
	BucketName      string
	ProjectID       string
	CredentialsPath string
}

type LLMConfig struct {
	APIKey string
	Model  string
}

// PaymentConfig holds the gateway credentials. The salt key never leaves the
// server; checksums are computed here.
type PaymentConfig struct {
	MerchantID      string
	SaltKey         string
	SaltIndex       string
	APIBaseURL      string
	Amount          int
	MobileNumber    string
	SuccessRedirect string
	FailureRedirect string
	ErrorRedirect   string
}

type AuthConfig struct {
	JWTSecret string
	SignInURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QuotaConfig struct {
	FreeFormLimit int
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	baseURL := strings.TrimSuffix(getEnv("BASE_URL", "http://localhost:8080"), "/")

	config := &Config{
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "aiform_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", getEnv("SERVER_PORT", "8080")),
			Environment: getEnv("ENVIRONMENT", "development"),
			BaseURL:     baseURL,
			AllowOrigins: []string{
				getEnv("FRONTEND_URL_1", "http://localhost:3000"),
				getEnv("FRONTEND_URL_2", "http://localhost:3001"),
			},
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
		},
		LLM: LLMConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Payment: PaymentConfig{
			MerchantID:      getEnv("MERCHANT_ID", ""),
			SaltKey:         getEnv("SALT_KEY", ""),
			SaltIndex:       getEnv("SALT_INDEX", "1"),
			APIBaseURL:      strings.TrimSuffix(getEnv("PAYMENT_API_URL", "https://api-preprod.phonepe.com/apis/pg-sandbox"), "/"),
			MobileNumber:    getEnv("PAYMENT_MOBILE_NUMBER", ""),
			SuccessRedirect: getEnv("PAYMENT_SUCCESS_REDIRECT", baseURL+"/dashboard"),
			FailureRedirect: getEnv("PAYMENT_FAILURE_REDIRECT", baseURL+"/dashboard"),
			ErrorRedirect:   getEnv("PAYMENT_ERROR_REDIRECT", baseURL+"/error"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			SignInURL: getEnv("SIGN_IN_URL", baseURL+"/sign-in"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	var err error
	if config.Payment.Amount, err = getEnvInt("PAYMENT_AMOUNT", 100); err != nil {
		return nil, err
	}
	if config.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if config.Quota.FreeFormLimit, err = getEnvInt("FREE_FORM_LIMIT", 3); err != nil {
		return nil, err
	}

	switch config.Database.Driver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func (s *ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// ShareURL is the public address of a fillable form.
func (s *ServerConfig) ShareURL(formID uint) string {
	return fmt.Sprintf("%s/aiform/%d", s.BaseURL, formID)
}

func (d *DatabaseConfig) DSN() string {
	if d.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	}
	// Check if we're using Cloud SQL Unix socket (path starts with /)
	if strings.HasPrefix(d.Host, "/") {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}
