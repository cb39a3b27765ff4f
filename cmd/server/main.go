// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Annany2002/taxacurator/api"
	"github.com/Annany2002/taxacurator/config"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/logger"
	"github.com/Annany2002/taxacurator/internal/session"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting taxacurator server...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	// 2. Connect the Remote Data Gateway
	gw, closeGateway, err := connectGateway(cfg)
	if err != nil {
		customLog.Fatalf("Failed to initialize gateway: %v", err)
		os.Exit(1)
	}
	defer closeGateway()
	gw = gateway.Instrument(gw, cfg.GatewayDriver)

	// 3. Sessions and the default curator account
	sessions := session.NewManager(gw, cfg.JWTSecret, cfg.JWTExpiration)
	seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := sessions.EnsureAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminDisplayName); err != nil {
		customLog.Warnf("Default admin account not seeded: %v", err)
	}
	cancel()

	// 4. Setup Router (passing dependencies)
	router := api.SetupRouter(gw, sessions, cfg)

	// 5. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}

// connectGateway opens the gateway selected by GATEWAY_DRIVER and returns its closer.
func connectGateway(cfg *config.Config) (gateway.Gateway, func(), error) {
	switch cfg.GatewayDriver {
	case config.GatewayREST:
		customLog.Printf("Using hosted gateway at %s", cfg.GatewayURL)
		return gateway.NewRESTClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout), func() {}, nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := gateway.ConnectSQLite(ctx, cfg.DatabaseDir, cfg.DatabaseFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			customLog.Println("Closing database connection...")
			if err := store.Close(); err != nil {
				customLog.Printf("Error closing database: %v", err)
			}
		}, nil
	}
}
