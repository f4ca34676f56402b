// Package config loads the console's configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// SecureCookie should be true behind HTTPS.
	SecureCookie bool

	// Bootstrap admin created on first start when no users exist.
	AdminEmail    string
	AdminPassword string

	// Web push (VAPID). Empty keys disable reminders.
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string

	// Encrypted S3 backups. Empty credentials disable backups.
	S3Endpoint       string
	S3Bucket         string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	BackupPassphrase string
	BackupRetention  int
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (Config, error) {
	// godotenv.Load does not override variables already set.
	_ = godotenv.Load()

	cfg := Config{
		Port:      getenv("ACOLHE_PORT", "8080"),
		DBPath:    getenv("ACOLHE_DB_PATH", "acolhe.db"),
		LogLevel:  getenv("ACOLHE_LOG_LEVEL", "info"),
		LogFormat: getenv("ACOLHE_LOG_FORMAT", "text"),

		SecureCookie: getenv("ACOLHE_SECURE_COOKIE", "false") == "true",

		AdminEmail:    os.Getenv("ACOLHE_ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ACOLHE_ADMIN_PASSWORD"),

		VAPIDPublicKey:  os.Getenv("ACOLHE_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("ACOLHE_VAPID_PRIVATE_KEY"),
		PushSubscriber:  getenv("ACOLHE_PUSH_SUBSCRIBER", "mailto:contato@acolhe.org"),

		S3Endpoint:       os.Getenv("ACOLHE_S3_ENDPOINT"),
		S3Bucket:         os.Getenv("ACOLHE_S3_BUCKET"),
		S3Region:         getenv("ACOLHE_S3_REGION", "us-east-1"),
		S3AccessKey:      os.Getenv("ACOLHE_S3_ACCESS_KEY"),
		S3SecretKey:      os.Getenv("ACOLHE_S3_SECRET_KEY"),
		BackupPassphrase: os.Getenv("ACOLHE_BACKUP_PASSPHRASE"),
	}

	retention := getenv("ACOLHE_BACKUP_RETENTION_DAYS", "30")
	days, err := strconv.Atoi(retention)
	if err != nil || days < 0 {
		return Config{}, fmt.Errorf("invalid ACOLHE_BACKUP_RETENTION_DAYS: %q", retention)
	}
	cfg.BackupRetention = days

	return cfg, nil
}
