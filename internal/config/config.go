// Package config reads the doorbell client settings from the
// environment. Call LoadEnvFile(".env") before Load() to use a .env
// file (keep .env out of git).
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds doorbell + façade settings.
type Config struct {
	// Doorbell
	DoorbellIP   string // e.g. 192.168.1.9
	DoorbellPort int    // TCP command port, usually 64100
	Token        string // user token obtained via sign-up

	// Tuning
	HandshakeRetries int           // extra reads tolerated during the CTPP handshake
	PollInterval     time.Duration // watch-loop poll cadence

	// Web façade
	WebAddr       string        // e.g. :8080
	DoorStorePath string        // sqlite path for the cached address book; "" = disabled
	MaxConns      int           // concurrent façade connections
	OpenRateEvery time.Duration // min spacing between door-open requests
}

// Load reads config from environment.
func Load() *Config {
	c := &Config{
		DoorbellIP:       os.Getenv("DOORBELL_IP"),
		DoorbellPort:     getEnvInt("DOORBELL_PORT", 64100),
		Token:            os.Getenv("TOKEN"),
		HandshakeRetries: getEnvInt("VIPER_HANDSHAKE_RETRIES", 2),
		PollInterval:     getEnvDuration("VIPER_POLL_INTERVAL", 1*time.Second),
		WebAddr:          getEnv("VIPER_WEB_ADDR", ":8080"),
		DoorStorePath:    os.Getenv("VIPER_DOOR_STORE"),
		MaxConns:         getEnvInt("VIPER_WEB_MAX_CONNS", 16),
		OpenRateEvery:    getEnvDuration("VIPER_OPEN_RATE_EVERY", 3*time.Second),
	}
	if c.DoorbellPort <= 0 {
		c.DoorbellPort = 64100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 1 * time.Second
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 16
	}
	return c
}

// LoadEnvFile sets environment variables from path. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
