package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Email backends
const (
	EmailNone    = ""
	EmailMailgun = "mailgun"
	EmailSMTP    = "smtp"
)

type Config struct {
	Port string

	StorageBackend string // "memory" or "mongo"
	MongoURI       string
	MongoUser      string
	MongoPass      string
	MongoDB        string

	JWTSecret string

	PollInterval         time.Duration
	NotificationPageSize int

	EmailBackend    string
	MailgunDomain   string
	MailgunKey      string
	MailFrom        string
	SMTPHost        string
	SMTPPort        int
	EmailSender     string
	EmailSenderPass string

	NatsURL           string
	NatsSubjectPrefix string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// Load reads .env (if any) and the environment and builds the config
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only
func FromEnv() (*Config, error) {
	pageSize, err := getIntEnv("NOTIFICATION_PAGE_SIZE", 50)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getIntEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	pollInterval, err := getDurationEnv("POLL_INTERVAL", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		StorageBackend: getEnv("STORAGE_BACKEND", StorageMemory),
		MongoURI:       os.Getenv("MONGO_URI"),
		MongoUser:      os.Getenv("MONGO_USER"),
		MongoPass:      os.Getenv("MONGO_PASS"),
		MongoDB:        getEnv("MONGO_DB", "marketplace"),

		JWTSecret: os.Getenv("SECRET"),

		PollInterval:         pollInterval,
		NotificationPageSize: pageSize,

		EmailBackend:    os.Getenv("EMAIL_BACKEND"),
		MailgunDomain:   os.Getenv("MAILGUN_DOMAIN"),
		MailgunKey:      os.Getenv("MAILGUN_PRIVATE_KEY"),
		MailFrom:        os.Getenv("MAIL_FROM"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        smtpPort,
		EmailSender:     os.Getenv("EMAIL_SENDER"),
		EmailSenderPass: os.Getenv("EMAIL_SENDER_PASS"),

		NatsURL:           os.Getenv("NATS_URL"),
		NatsSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "marketplace.messaging"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the combinations the server cannot start without
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("SECRET must be set")
	}

	switch c.StorageBackend {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo storage backend")
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.EmailBackend {
	case EmailNone:
	case EmailMailgun:
		if c.MailgunDomain == "" || c.MailgunKey == "" {
			return errors.New("MAILGUN_DOMAIN and MAILGUN_PRIVATE_KEY are required for mailgun")
		}
	case EmailSMTP:
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for smtp")
		}
	default:
		return fmt.Errorf("unknown EMAIL_BACKEND %q", c.EmailBackend)
	}

	if c.NotificationPageSize <= 0 {
		return errors.New("NOTIFICATION_PAGE_SIZE must be positive")
	}
	if c.PollInterval < time.Second {
		return errors.New("POLL_INTERVAL must be at least 1s")
	}
	return nil
}
