package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	Env      string

	DatabaseURL  string
	ProductsFile string
	StaticDir    string
	ExportFile   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailTo       string

	OpenAIAPIKey string
	ChatModel    string

	AllowedOrigins []string
}

// Load reads configuration from environment variables, falling back to a
// .env file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Env:      getEnv("ENV", "development"),

		DatabaseURL:  getEnv("DATABASE_URL", "plycraft.db"),
		ProductsFile: getEnv("PRODUCTS_FILE", "data/products.json"),
		StaticDir:    getEnv("STATIC_DIR", "static"),
		ExportFile:   getEnv("EXPORT_FILE", "newsletter_signups.json"),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailTo:       getEnv("MAIL_TO", ""),

		OpenAIAPIKey: getEnv("OPEN_AI_API_KEY", ""),
		ChatModel:    getEnv("CHAT_MODEL", "gpt-4o-mini"),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env != "production"
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue string) []string {
	var out []string
	for _, entry := range strings.Split(getEnv(key, defaultValue), ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}
