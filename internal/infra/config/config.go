package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the process-wide environment configuration.
type Config struct {
	Port string

	// Storage backend selector: "firestore" (default) or "postgres".
	DBDriver string

	FirestoreProjectID       string
	FirestoreCredentialsFile string

	// Postgres DSN, used when DBDriver is "postgres". May be resolved from
	// Secret Manager when empty (see platform/di).
	DatabaseURL string

	// Product image bucket. Empty disables image uploads.
	ProductImageBucket string

	// SendGrid. Empty API key disables outgoing mail.
	SendGridAPIKey string
	MailFrom       string
}

// Load reads a local .env (when present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		zap.S().Debug("[config] loaded .env")
	}

	defaultProject := getenvDefault("GCP_PROJECT_ID", "shoporia-production")

	return &Config{
		Port: getenvDefault("PORT", "8080"),

		DBDriver: getenvDefault("DB_DRIVER", "firestore"),

		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		ProductImageBucket: os.Getenv("PRODUCT_IMAGE_BUCKET"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getenvDefault("SENDGRID_FROM", "no-reply@shoporia.app"),
	}
}

func (c *Config) UsesPostgres() bool {
	return c.DBDriver == "postgres"
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
