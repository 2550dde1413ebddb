package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medipal-health/appstate-service/internal/api"
	"github.com/medipal-health/appstate-service/internal/config"
	"github.com/medipal-health/appstate-service/internal/dialog"
	"github.com/medipal-health/appstate-service/internal/messaging"
	"github.com/medipal-health/appstate-service/internal/notify"
	"github.com/medipal-health/appstate-service/internal/payment"
	"github.com/medipal-health/appstate-service/internal/prescription"
	"github.com/medipal-health/appstate-service/internal/session"
	"github.com/medipal-health/appstate-service/internal/store"
	"github.com/medipal-health/appstate-service/internal/telemetry"
	"github.com/medipal-health/appstate-service/internal/transaction"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// OpenTelemetry
	provider, err := telemetry.InitProvider(ctx, telemetry.LoadConfig())
	if err != nil {
		log.Printf("Warning: failed to initialize telemetry: %v", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := provider.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: telemetry shutdown failed: %v", err)
			}
		}()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Printf("Warning: failed to initialize metrics: %v", err)
	}

	// Domain events
	var publisher messaging.PublisherInterface
	if pub, err := messaging.NewPublisher(cfg.Events.RabbitMQURL); err != nil {
		log.Printf("Warning: event publishing disabled: %v", err)
	} else {
		publisher = pub
		defer pub.Close()
	}

	// State store and slices
	st := store.New()

	prescriptionSlice, err := prescription.NewSlice(st)
	if err != nil {
		log.Fatalf("Failed to register prescription slice: %v", err)
	}
	transactionSlice, err := transaction.NewSlice(st)
	if err != nil {
		log.Fatalf("Failed to register transaction slice: %v", err)
	}

	if err := st.LoadSnapshot(cfg.Snapshot.Path); err != nil {
		log.Printf("Warning: could not load state snapshot: %v", err)
	}

	// Persist the tree whenever any slice changes
	st.Subscribe(func(stateKey string) {
		if err := st.SaveSnapshot(cfg.Snapshot.Path); err != nil {
			log.Printf("Warning: failed to persist state after %s change: %v", stateKey, err)
		}
	})

	// Backend access
	sess := session.New(cfg.Auth)
	client := api.NewClient(cfg.API, sess, metrics)

	toaster := notify.LogToaster{}
	dialogs := dialog.NewController(metrics, nil)

	// Payment flow and services
	flow := payment.NewFlow(payment.NewClassifier(cfg.Payment), client, nil, publisher, metrics)

	prescriptionSvc := prescription.NewService(prescriptionSlice, client, publisher, toaster, metrics)
	transactionSvc := transaction.NewService(transactionSlice, client, flow, dialogs, publisher, toaster, metrics)
	flow.BindAccounts(transactionSvc)

	// Warm the state tree once a backend session is available
	go func() {
		if err := prescriptionSvc.FetchAll(ctx); err != nil {
			log.Printf("Warning: initial prescription fetch failed: %v", err)
		}
		userID, err := sess.UserID()
		if err != nil {
			return
		}
		if err := transactionSvc.RefreshAccount(ctx, userID); err != nil {
			log.Printf("Warning: initial account refresh failed: %v", err)
		}
	}()

	// Gateway callback listener
	server := payment.NewServer(cfg.Payment.CallbackAddr, flow)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Payment callback listener failed: %v", err)
		}
	}()

	log.Println("✓ appstate-service started")

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: callback listener shutdown failed: %v", err)
	}

	if err := st.SaveSnapshot(cfg.Snapshot.Path); err != nil {
		log.Printf("Warning: failed to persist final state: %v", err)
	}

	log.Println("✓ appstate-service stopped")
}
