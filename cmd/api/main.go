// SCES Donations Service
//
// This is the main entry point for the donation processing service.
// It wires up all dependencies and starts the HTTP server.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Justinbown8/sces-website-sub001/config"
	"github.com/Justinbown8/sces-website-sub001/internal/api"
	"github.com/Justinbown8/sces-website-sub001/internal/gateway/paypal"
	"github.com/Justinbown8/sces-website-sub001/internal/gateway/razorpay"
	"github.com/Justinbown8/sces-website-sub001/internal/notify"
	"github.com/Justinbown8/sces-website-sub001/internal/repository"
	"github.com/Justinbown8/sces-website-sub001/internal/service"
)

func main() {
	log.Println("Starting SCES Donations Service...")

	// Load configuration
	cfg := config.Load()
	log.Printf("Configuration loaded: Port=%s, DB=%s", cfg.Server.Port, cfg.DB.Path)

	// Validate required configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Database
	db, err := repository.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer db.Close()

	// Wire up dependencies (manual dependency injection)
	//
	// Infrastructure Layer
	ledger := repository.NewDonationRepo(db)
	razorpayClient := razorpay.NewClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	paypalClient := paypal.NewClient(cfg.PayPal.BaseURL, cfg.PayPal.ClientID, cfg.PayPal.ClientSecret)
	mailer := notify.NewMailer(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From, cfg.Mail.AdminAddr)
	dispatcher := notify.NewDispatcher(mailer)

	// Service Layer
	donationService := service.NewDonationService(
		razorpayClient, // implements domain.PaymentGateway
		paypalClient,   // implements domain.PaymentGateway
		ledger,         // implements domain.DonationLedger
		dispatcher,     // implements domain.ReceiptDispatcher
		cfg.Razorpay.KeySecret,
		cfg.Org.ReceiptPrefix,
		cfg.Org.ReceiptBaseURL,
	)

	// API Layer
	handler := api.NewHandler(donationService, ledger)
	router := api.SetupRouter(handler, cfg.Server.GinMode, cfg.Org.AdminAPIKey)

	// Start server in a goroutine
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	go func() {
		log.Printf("Server listening on %s", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
}

// validateConfig checks that required configuration values are set.
func validateConfig(cfg *config.Config) error {
	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		log.Println("Warning: Razorpay credentials not set, gateway payments will fail")
	}
	if cfg.PayPal.ClientID == "" || cfg.PayPal.ClientSecret == "" {
		log.Println("Warning: PayPal credentials not set, PayPal payments will fail")
	}
	if cfg.Mail.APIKey == "" {
		log.Println("Warning: MAIL_API_KEY not set, receipts will not be delivered")
	}
	if cfg.Org.AdminAPIKey == "" {
		log.Println("Warning: ADMIN_API_KEY not set, reporting endpoints are open")
	}
	return nil
}
