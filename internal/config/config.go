package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once at startup
// and handed to every component by pointer; nothing mutates it afterwards.
type Config struct {
	MongoDB  MongoDBConfig
	Worker   WorkerConfig
	LLM      LLMConfig
	OpenAI   OpenAIConfig
	Gemini   GeminiConfig
	OCR      OCRConfig
	Renderer RendererConfig
	Storage  StorageConfig
	Export   ExportConfig
	InfluxDB InfluxDBConfig
	Server   ServerConfig
	Log      LogConfig
}

// MongoDBConfig holds MongoDB connection details
type MongoDBConfig struct {
	URI                    string
	Username               string
	Password               string
	Database               string
	TaskCollection         string
	DocumentCollection     string
	CheckDetailsCollection string
	ConnectTimeout         time.Duration
}

// WorkerConfig holds the orchestrator polling settings
type WorkerConfig struct {
	PollInterval     time.Duration
	DocumentCategory string
}

// LLMConfig selects the language model backend
type LLMConfig struct {
	Provider string // "openai" or "gemini"
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string // Optional: for OpenAI-compatible endpoints
	Model     string
	MaxTokens int
}

// GeminiConfig holds Google Gemini API configuration
type GeminiConfig struct {
	APIKey  string
	BaseURL string // Optional: overrides the Gemini API endpoint
	Model   string
}

// OCRConfig holds Tesseract settings
type OCRConfig struct {
	Languages      []string
	TessdataPrefix string
}

// RendererConfig holds PDF rasterisation settings
type RendererConfig struct {
	PdftoppmPath string
	DPI          int
}

// StorageConfig holds where cleaned check images are archived
type StorageConfig struct {
	Backend   string // "local" or "s3"
	ChecksDir string
	S3        S3Config
}

// S3Config holds S3 connection details
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for S3-compatible services like MinIO
	Prefix          string
}

// ExportConfig holds the CSV export location
type ExportConfig struct {
	CSVPath string
}

// InfluxDBConfig holds InfluxDB connection details. Metrics are disabled when URL is empty.
type InfluxDBConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// ServerConfig holds the status API settings
type ServerConfig struct {
	Enabled bool
	Host    string
	Port    string
}

// LogConfig holds logging settings
type LogConfig struct {
	File    string
	Verbose bool
}

// LoadConfig loads configuration from environment variables and validates it
func LoadConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Load reads configuration from environment variables without validating it.
// Tools that only touch part of the pipeline (e.g. PDF validation) use it directly.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	password := getEnv("MONGO_PASSWORD", "")
	// Docker secrets take precedence over the plain variable
	if passwordFile := getEnv("MONGO_PASSWORD_FILE", ""); passwordFile != "" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read MONGO_PASSWORD_FILE: %w", err)
		}
		password = strings.TrimSpace(string(data))
	}

	config := &Config{
		MongoDB: MongoDBConfig{
			URI:                    getEnv("MONGO_URI", "mongodb://localhost:27017/"),
			Username:               getEnv("MONGO_USERNAME", ""),
			Password:               password,
			Database:               getEnv("MONGO_DB_NAME", "pan-ocr"),
			TaskCollection:         getEnv("MONGO_TASK_COLLECTION", "task"),
			DocumentCollection:     getEnv("MONGO_DOCUMENT_COLLECTION", "file_document"),
			CheckDetailsCollection: getEnv("MONGO_CHECK_COLLECTION", "check_details"),
			ConnectTimeout:         time.Duration(getEnvInt("MONGO_CONNECT_TIMEOUT", 10)) * time.Second,
		},
		Worker: WorkerConfig{
			PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL", 30)) * time.Second,
			DocumentCategory: getEnv("DOCUMENT_CATEGORY", "bank_checks"),
		},
		LLM: LLMConfig{
			Provider: strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			BaseURL:   getEnv("OPENAI_BASE_URL", ""),
			Model:     getEnv("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 300),
		},
		Gemini: GeminiConfig{
			APIKey:  getEnv("GOOGLE_API_KEY", ""),
			BaseURL: getEnv("GEMINI_BASE_URL", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		OCR: OCRConfig{
			Languages:      splitList(getEnv("TESSERACT_LANGUAGES", "eng")),
			TessdataPrefix: getEnv("TESSDATA_PREFIX", ""),
		},
		Renderer: RendererConfig{
			PdftoppmPath: getEnv("PDFTOPPM_PATH", "pdftoppm"),
			DPI:          getEnvInt("RENDER_DPI", 200),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("IMAGE_STORE", "local")),
			ChecksDir: getEnv("CHECKS_DIR", "data/checks"),
			S3: S3Config{
				Bucket:          getEnv("S3_BUCKET", ""),
				Region:          getEnv("S3_REGION", "us-east-1"),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
				Endpoint:        getEnv("S3_ENDPOINT", ""), // Optional for MinIO/custom S3
				Prefix:          getEnv("S3_PREFIX", "checks"),
			},
		},
		Export: ExportConfig{
			CSVPath: getEnv("EXPORT_CSV_PATH", "data/processed_checks.csv"),
		},
		InfluxDB: InfluxDBConfig{
			URL:    getEnv("INFLUXDB2_URL", ""),
			Token:  getEnv("INFLUXDB2_TOKEN", ""),
			Org:    getEnv("INFLUXDB2_ORG", ""),
			Bucket: getEnv("INFLUXDB2_BUCKET", ""),
		},
		Server: ServerConfig{
			Enabled: getEnvBool("API_ENABLED", true),
			Host:    getEnv("HOST", "0.0.0.0"),
			Port:    getEnv("PORT", "8085"),
		},
		Log: LogConfig{
			File:    getEnv("LOG_FILE", ""),
			Verbose: strings.EqualFold(getEnv("LOG_LEVEL", "INFO"), "DEBUG"),
		},
	}

	return config, nil
}

// ValidateConfig validates that required configuration values are present
func ValidateConfig(config *Config) error {
	if config.Worker.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be a positive number of seconds")
	}
	if config.Renderer.DPI <= 0 {
		return fmt.Errorf("RENDER_DPI must be positive")
	}

	switch config.LLM.Provider {
	case "openai":
		if config.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case "gemini":
		if config.Gemini.APIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (expected openai or gemini)", config.LLM.Provider)
	}

	switch config.Storage.Backend {
	case "local":
	case "s3":
		if config.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when IMAGE_STORE=s3")
		}
		if config.Storage.S3.AccessKeyID == "" || config.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required when IMAGE_STORE=s3")
		}
	default:
		return fmt.Errorf("unsupported IMAGE_STORE %q (expected local or s3)", config.Storage.Backend)
	}

	if config.InfluxDB.URL != "" {
		if config.InfluxDB.Token == "" || config.InfluxDB.Org == "" || config.InfluxDB.Bucket == "" {
			return fmt.Errorf("INFLUXDB2_TOKEN, INFLUXDB2_ORG and INFLUXDB2_BUCKET are required when INFLUXDB2_URL is set")
		}
	}
	return nil
}

// Helper functions for environment variable access
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
