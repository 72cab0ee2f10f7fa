package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Orders  OrdersConfig
}

type ServerConfig struct {
	Port               string
	Env                string
	BaseURL            string
	JWTSecret          string
	JWTExpirationHours int
	CORSOrigins        []string
	DBDSN              string
	AllowRegistration  bool
}

type StorageConfig struct {
	// Driver selects the object-storage strategy at bootstrap:
	// "disk" stores under UploadDir, "null" disables uploads and lets
	// QR generation fall back to data URLs. There is no runtime toggle.
	Driver    string
	UploadDir string
}

type OrdersConfig struct {
	// PendingTimeoutMinutes is how long an order may sit in
	// payment status "pending" before the sweeper cancels it.
	PendingTimeoutMinutes int
}

var AppConfig *Config

// Load reads .env (when present) and the process environment and fills
// AppConfig. It fails fast on a local database DSN: the platform runs
// against a managed cloud MySQL only.
func Load() error {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("JWT_EXPIRATION_HOURS", 24)
	viper.SetDefault("STORAGE_DRIVER", "disk")
	viper.SetDefault("UPLOAD_DIR", "./uploads")
	viper.SetDefault("ORDER_PENDING_TIMEOUT_MINUTES", 30)
	viper.BindEnv("SERVER_PORT", "PORT")

	cfg := &Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			Env:                viper.GetString("SERVER_ENV"),
			BaseURL:            strings.TrimRight(viper.GetString("BASE_URL"), "/"),
			JWTSecret:          viper.GetString("JWT_SECRET"),
			JWTExpirationHours: viper.GetInt("JWT_EXPIRATION_HOURS"),
			CORSOrigins:        splitOrigins(viper.GetString("CORS_ORIGINS")),
			DBDSN:              viper.GetString("DB_DSN"),
			AllowRegistration:  viper.GetBool("ALLOW_REGISTRATION"),
		},
		Storage: StorageConfig{
			Driver:    viper.GetString("STORAGE_DRIVER"),
			UploadDir: viper.GetString("UPLOAD_DIR"),
		},
		Orders: OrdersConfig{
			PendingTimeoutMinutes: viper.GetInt("ORDER_PENDING_TIMEOUT_MINUTES"),
		},
	}

	if cfg.Server.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not configured")
	}
	if cfg.Server.DBDSN == "" {
		return fmt.Errorf("DB_DSN is not configured")
	}
	if err := CheckCloudDSN(cfg.Server.DBDSN); err != nil {
		return err
	}
	switch cfg.Storage.Driver {
	case "disk", "null":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be disk or null, got %q", cfg.Storage.Driver)
	}

	AppConfig = cfg
	log.Printf("Configuration loaded (port=%s env=%s storage=%s)",
		cfg.Server.Port, cfg.Server.Env, cfg.Storage.Driver)
	return nil
}

// CheckCloudDSN rejects DSNs that point at a local database. The
// production fleet only ever talks to the managed cluster, so a
// localhost DSN is always a misconfigured deployment.
func CheckCloudDSN(dsn string) error {
	lower := strings.ToLower(dsn)
	for _, bad := range []string{"@tcp(localhost", "@tcp(127.0.0.1", "@unix(", "@tcp([::1]"} {
		if strings.Contains(lower, bad) {
			return fmt.Errorf("DB_DSN must point at the cloud database, got a local address")
		}
	}
	return nil
}

func splitOrigins(s string) []string {
	if s == "" {
		return []string{"http://localhost:5173"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
