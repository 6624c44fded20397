package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	ListenAddr       string        // HTTP listen address
	MongoURI         string        // document store connection string
	Database         string        // database name
	Collection       string        // collection holding user records
	Store            string        // "mongo" or "memory"
	StrictValidation bool          // validate input and hide fault details
	FrontendURL      string        // dev client to proxy instead of the embedded one
	GRPCAddr         string        // gRPC health listen address, empty disables
	HealthInterval   time.Duration // store ping interval for the gRPC health watcher
	ConnectTimeout   time.Duration // startup connect deadline
}

// Store backends.
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Load reads configuration from environment variables, falling back to defaults.
func Load() *Config {
	return &Config{
		ListenAddr:       envOrDefault("LISTEN_ADDR", ":"+envOrDefault("PORT", "5000")),
		MongoURI:         envOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		Database:         envOrDefault("DB_NAME", "users"),
		Collection:       envOrDefault("COLLECTION", "users_collection"),
		Store:            envOrDefault("STORE", StoreMongo),
		StrictValidation: envOrDefaultBool("STRICT_VALIDATION", true),
		FrontendURL:      os.Getenv("FRONTEND_URL"),
		GRPCAddr:         os.Getenv("GRPC_ADDR"),
		HealthInterval:   envOrDefaultDuration("HEALTH_INTERVAL", 10*time.Second),
		ConnectTimeout:   envOrDefaultDuration("CONNECT_TIMEOUT", 10*time.Second),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
