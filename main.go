package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"lg/diet-planner-api/internal/diet"
)

// config is read from the environment (optionally seeded from .env).
type config struct {
	Port          string
	CatalogURL    string
	CatalogAPIKey string
	HistoryLimit  int
}

// loadConfig reads the server settings. Missing optional values fall back to
// defaults; a malformed HISTORY_LIMIT is an error rather than silently ignored.
func loadConfig() (config, error) {
	cfg := config{
		Port:          os.Getenv("PORT"),
		CatalogURL:    os.Getenv("FOOD_CATALOG_URL"),
		CatalogAPIKey: os.Getenv("FOOD_CATALOG_API_KEY"),
		HistoryLimit:  diet.DefaultHistoryLimit,
	}
	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if raw := os.Getenv("HISTORY_LIMIT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("HISTORY_LIMIT must be a positive integer (got %q)", raw)
		}
		cfg.HistoryLimit = n
	}
	return cfg, nil
}

func main() {
	// Set properties of the predefined Logger, including
	// the log entry prefix and a flag to disable printing
	// the time, source file, and line number.
	log.SetPrefix("lg/diet-planner-api: ")
	log.SetFlags(0)

	// .env is optional in deployed environments where vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] no .env loaded: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Starting gin app...")

	pool := getDBPool()
	defer pool.Close()

	catalog := newHTTPFoodCatalog(cfg.CatalogURL, cfg.CatalogAPIKey)
	h := newHandler(pool, catalog, cfg.HistoryLimit)

	router := gin.Default()
	router.SetTrustedProxies(nil)
	h.registerRoutes(router)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
