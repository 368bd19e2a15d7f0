package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	LTI      LTIConfig
	Canvas   CanvasConfig
	RabbitMQ RabbitMQConfig
}

type ServerConfig struct {
	Port           string
	FrontendURL    string
	AllowedOrigins []string
}

type MongoDBConfig struct {
	URI      string
	Database string
	PoolSize uint64
	Timeout  time.Duration
}

type LTIConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	SessionTTL     time.Duration
}

type CanvasConfig struct {
	BaseURL          string
	AccessToken      string
	PollInterval     time.Duration
	RequestTimeout   time.Duration
	MonitoredQuizzes []MonitoredQuiz
}

// MonitoredQuiz is a (course, quiz) pair under active polling.
type MonitoredQuiz struct {
	CourseID string
	QuizID   string
}

type RabbitMQConfig struct {
	URI      string
	Exchange string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "3001"),
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "quiz_monitor"),
			PoolSize: getEnvAsUint64("MONGODB_POOL_SIZE", 100),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		LTI: LTIConfig{
			ConsumerKey:    getEnv("LTI_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv("LTI_CONSUMER_SECRET", ""),
			SessionTTL:     time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		},
		Canvas: CanvasConfig{
			BaseURL:          getEnv("CANVAS_API_URL", ""),
			AccessToken:      getEnv("CANVAS_ACCESS_TOKEN", ""),
			PollInterval:     time.Duration(getEnvAsInt("POLL_INTERVAL_SECONDS", 30)) * time.Second,
			RequestTimeout:   getEnvAsDuration("CANVAS_REQUEST_TIMEOUT", 10*time.Second),
			MonitoredQuizzes: parseMonitoredQuizzes(getEnv("MONITORED_QUIZZES", "")),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", ""),
		},
	}
}

// parseMonitoredQuizzes parses a comma-separated list of courseId:quizId pairs.
// Malformed entries are skipped with a warning rather than failing startup.
func parseMonitoredQuizzes(raw string) []MonitoredQuiz {
	if raw == "" {
		return nil
	}
	var quizzes []MonitoredQuiz
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Printf("Skipping malformed MONITORED_QUIZZES entry: %q", entry)
			continue
		}
		quizzes = append(quizzes, MonitoredQuiz{CourseID: parts[0], QuizID: parts[1]})
	}
	return quizzes
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsUint64(key string, defaultVal uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}
