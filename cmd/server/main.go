package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "site-materials/internal/adapters/web"
	"site-materials/internal/app"
	"site-materials/internal/core"
	"site-materials/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	stats := core.NewStatsService(pool)
	catalog := core.NewCatalogService(pool, stats)
	ledger := core.NewLedger(pool)
	ledger.Observe(stats)
	stock := core.NewStockService(pool)

	svc := app.NewAppService(pool, catalog, ledger, stock, stats)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
