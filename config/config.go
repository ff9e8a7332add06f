// Package config handles loading and managing application configuration.
package config

import (
	"os"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Razorpay gateway credentials
	Razorpay RazorpayConfig

	// PayPal gateway credentials
	PayPal PayPalConfig

	// Transactional mail API configuration
	Mail MailConfig

	// Database configuration
	DB DBConfig

	// Organisation-level settings
	Org OrgConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port    string
	GinMode string // "debug", "release", or "test"
}

// RazorpayConfig holds the Razorpay API key pair. KeySecret is also the
// HMAC secret used to verify checkout signatures.
type RazorpayConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

// PayPalConfig holds the PayPal REST API credentials.
type PayPalConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// MailConfig holds the transactional mail API settings.
type MailConfig struct {
	BaseURL   string
	APIKey    string
	From      string
	AdminAddr string
}

// DBConfig holds the SQLite database settings.
type DBConfig struct {
	Path string
}

// OrgConfig holds organisation-level settings for receipts and the admin
// reporting endpoints.
type OrgConfig struct {
	ReceiptPrefix  string
	ReceiptBaseURL string
	AdminAPIKey    string
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", "8080"),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Razorpay: RazorpayConfig{
			BaseURL:   getEnv("RAZORPAY_BASE_URL", ""),
			KeyID:     getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret: getEnv("RAZORPAY_KEY_SECRET", ""),
		},
		PayPal: PayPalConfig{
			BaseURL:      getEnv("PAYPAL_BASE_URL", ""),
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
		},
		Mail: MailConfig{
			BaseURL:   getEnv("MAIL_API_URL", "https://api.resend.com"),
			APIKey:    getEnv("MAIL_API_KEY", ""),
			From:      getEnv("MAIL_FROM", "donations@scesngo.org"),
			AdminAddr: getEnv("MAIL_ADMIN", "admin@scesngo.org"),
		},
		DB: DBConfig{
			Path: getEnv("DB_PATH", "donations.db"),
		},
		Org: OrgConfig{
			ReceiptPrefix:  getEnv("RECEIPT_PREFIX", "SCES"),
			ReceiptBaseURL: getEnv("RECEIPT_BASE_URL", ""),
			AdminAPIKey:    getEnv("ADMIN_API_KEY", ""),
		},
	}
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
