package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/talentchain/marketplace/backend/pkg/chainclient"
	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/pkg/common/api"
	"github.com/talentchain/marketplace/backend/pkg/common/db"
	"github.com/talentchain/marketplace/backend/pkg/common/migrations"
	"github.com/talentchain/marketplace/backend/services/auth"
	"github.com/talentchain/marketplace/backend/services/items"
	"github.com/talentchain/marketplace/backend/services/offers"
	"github.com/talentchain/marketplace/backend/services/talent"
	"github.com/talentchain/marketplace/backend/services/transactions"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is")
	}

	cfg := common.LoadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	chain, err := chainclient.NewClient(cfg.EthRPCURL, cfg.ContractAddress,
		time.Duration(cfg.ChainTimeout)*time.Second)
	if err != nil {
		log.Fatalf("Failed to create chain client: %v", err)
	}
	defer chain.Close()

	authenticator := common.NewAuthenticator(cfg.JWTSecret)

	identityStore := auth.NewPostgresStore(database)
	itemStore := items.NewPostgresStore(database)
	txStore := transactions.NewPostgresStore(database)
	offerStore := offers.NewPostgresStore(database)
	talentStore := talent.NewPostgresStore(database)

	authSvc := auth.NewService(identityStore, authenticator)
	itemsSvc := items.NewService(itemStore, chain)
	offersSvc := offers.NewService(offerStore, authenticator)
	talentSvc := talent.NewService(talentStore, authenticator)

	listener := transactions.NewListener(chain, txStore,
		func(ctx context.Context, itemID string) error {
			_, err := itemsSvc.SyncItem(ctx, itemID)
			return err
		},
		func(ctx context.Context, itemID, buyer string) error {
			_, err := itemStore.MarkSold(ctx, itemID, buyer)
			return err
		})
	txSvc := transactions.NewService(txStore, chain, listener)

	if err := listener.Start(context.Background()); err != nil {
		// Listeners can be re-armed later via POST /api/transactions/listen.
		log.Printf("Warning: failed to start event listeners: %v", err)
	}

	r := mux.NewRouter()
	apiRouter := r.PathPrefix("/api").Subrouter()

	authSvc.RegisterRoutes(apiRouter)
	itemsSvc.RegisterRoutes(apiRouter)
	txSvc.RegisterRoutes(apiRouter)
	offersSvc.RegisterRoutes(apiRouter)
	talentSvc.RegisterRoutes(apiRouter)

	apiRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	log.Printf("Marketplace backend running on :%s", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
