package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lg/diet-planner-api/internal/diet"
)

// Handler holds shared dependencies (db pool, catalog, session registry) for
// all route handlers.
type Handler struct {
	db      *pgxpool.Pool
	catalog diet.FoodCatalog

	// patientsFor scopes profile lookups to one practitioner's patients.
	patientsFor func(practitionerID int) diet.PatientDataProvider
	presets     presetRepository

	sessions     *sessionRegistry
	historyLimit int
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors for debugging (e.g. struct/column mismatches).
// ctx is usually the *gin.Context of the request.
func queryOne[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryOne] Query error: %v", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryOne] Scan error: %v", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
func queryMany[T any](pool *pgxpool.Pool, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args)
	if err != nil {
		log.Printf("[queryMany] Query error: %v", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		log.Printf("[queryMany] Scan error: %v", err)
	}
	return results, err
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. We use a pool (not a single conn) because
// Neon closes idle connections after ~5 minutes.
func getDBPool() *pgxpool.Pool {
	config, err := pgxpool.ParseConfig(os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to parse DB URL: %v\n", err)
		os.Exit(1)
	}
	// Use simple query protocol to avoid "cached plan must not change result type"
	// errors from Neon's server-side prepared statement cache after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("DB pool ready!")
	return pool
}

// newHandler wires the Postgres-backed stores around pool.
func newHandler(pool *pgxpool.Pool, catalog diet.FoodCatalog, historyLimit int) *Handler {
	return &Handler{
		db:      pool,
		catalog: catalog,
		patientsFor: func(practitionerID int) diet.PatientDataProvider {
			return &pgPatientProvider{db: pool, practitionerID: practitionerID}
		},
		presets:      &pgPresetStore{db: pool},
		sessions:     newSessionRegistry(),
		historyLimit: historyLimit,
	}
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.POST("/api/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/patients/:id", h.getPatient)
	api.PATCH("/patients/:id", h.patchPatient)
	api.GET("/patients/:id/measurements", h.getMeasurements)
	api.POST("/patients/:id/measurements", h.upsertMeasurement)
	api.DELETE("/patients/:id/measurements/:measurementId", h.deleteMeasurement)
	h.registerPresetRoutes(api)
	h.registerSessionRoutes(api)
}

// registerPresetRoutes registers the preset library routes. Split out so tests
// can mount them without the DB-backed auth middleware.
func (h *Handler) registerPresetRoutes(api *gin.RouterGroup) {
	api.GET("/presets", h.listPresets)
	api.POST("/presets", h.createPreset)
}

// registerSessionRoutes registers the planning-session routes.
func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	api.POST("/sessions", h.createSession)
	api.GET("/sessions/:id", h.getSession)
	api.DELETE("/sessions/:id", h.deleteSession)
	api.PUT("/sessions/:id/profile", h.putSessionProfile)
	api.POST("/sessions/:id/targets", h.computeSessionTargets)
	api.GET("/sessions/:id/progress", h.getSessionProgress)

	api.POST("/sessions/:id/meals", h.addMeal)
	api.PATCH("/sessions/:id/meals/:mealId", h.updateMeal)
	api.DELETE("/sessions/:id/meals/:mealId", h.removeMeal)
	api.POST("/sessions/:id/meals/:mealId/duplicate", h.duplicateMeal)
	api.POST("/sessions/:id/meals/:mealId/foods", h.addFood)
	api.PATCH("/sessions/:id/meals/:mealId/foods/:foodId", h.updateFoodQuantity)
	api.DELETE("/sessions/:id/meals/:mealId/foods/:foodId", h.removeFood)
	api.POST("/sessions/:id/meals/:mealId/foods/:foodId/replace", h.replaceFood)
	api.POST("/sessions/:id/meals/:mealId/foods/:foodId/substitutes", h.searchSubstitutes)
	api.POST("/sessions/:id/meals/:mealId/presets/:presetId", h.applyPreset)

	api.POST("/sessions/:id/undo", h.undo)
	api.POST("/sessions/:id/redo", h.redo)
}
