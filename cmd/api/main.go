package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"catalog-audit-shopify-layer/internal/application"
	"catalog-audit-shopify-layer/internal/domain"
	"catalog-audit-shopify-layer/internal/infrastructure/ledger"
	"catalog-audit-shopify-layer/internal/infrastructure/metrics"
	"catalog-audit-shopify-layer/internal/infrastructure/openai"
	"catalog-audit-shopify-layer/internal/infrastructure/repository"
	shopifyinfra "catalog-audit-shopify-layer/internal/infrastructure/shopify"
	"catalog-audit-shopify-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "catalog_audit"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	apiKey := os.Getenv("SHOPIFY_API_KEY")
	apiSecret := os.Getenv("SHOPIFY_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		logger.Fatal().Msg("SHOPIFY_API_KEY and SHOPIFY_API_SECRET environment variables are required")
	}

	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		logger.Fatal().Msg("OPENAI_API_KEY environment variable is required")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(context.Background(), nil); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}
	db := client.Database(dbName)

	// Connect to Redis (credit ledger)
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr, Password: os.Getenv("REDIS_PASSWORD")})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Initialize metrics
	m := metrics.New()

	// Initialize repositories
	shopRepo := repository.NewMongoShopRepository(db)
	auditRepo := repository.NewMongoProductAuditRepository(db)
	issueRepo := repository.NewMongoIssueRepository(db)
	enhancementRepo := repository.NewMongoEnhancementRepository(db)

	// Initialize infrastructure adapters
	catalogClient := shopifyinfra.NewClient(apiKey, apiSecret, logger)
	generator := openai.NewClient(openaiKey, logger)
	creditLedger := ledger.NewRedisLedger(redisClient, logger)

	// Initialize application services
	auditService := application.NewAuditService(
		catalogClient,
		shopRepo,
		auditRepo,
		issueRepo,
		enhancementRepo,
		m,
		logger,
	)
	enhancementService := application.NewEnhancementService(
		enhancementRepo,
		shopRepo,
		catalogClient,
		generator,
		creditLedger,
		m,
		logger,
	)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	r.Handle("/metrics", m.Handler())

	// Audit routes
	r.Post("/shops/{shop}/scan", scanHandler(auditService, logger))
	r.Get("/shops/{shop}/rollup", rollupHandler(auditService, logger))
	r.Get("/shops/{shop}/issues", issueBreakdownHandler(auditService, logger))
	r.Get("/shops/{shop}/credit", creditHandler(creditLedger, logger))

	// Enhancement workflow routes
	r.Post("/enhancements/select", selectHandler(enhancementService, logger))
	r.Post("/enhancements/{productID}/generate", generateHandler(enhancementService, logger))
	r.Post("/enhancements/{productID}/approve", approveHandler(enhancementService, logger))
	r.Post("/enhancements/{productID}/reject", rejectHandler(enhancementService, logger))
	r.Get("/enhancements/{productID}", proposalHandler(enhancementService, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("🚀 Server starting")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a workflow error kind to an HTTP status with a
// machine-readable kind the UI can branch on.
func writeError(w http.ResponseWriter, err error) {
	var persistenceErr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": err.Error()})
	case errors.Is(err, domain.ErrInsufficientCredit):
		writeJSON(w, http.StatusPaymentRequired, map[string]string{"error": "insufficient_credit", "message": err.Error()})
	case errors.Is(err, domain.ErrMalformedAIResponse):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "malformed_ai_response", "message": err.Error()})
	case errors.Is(err, domain.ErrProviderTimeout):
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"error": "provider_timeout", "message": err.Error()})
	case errors.Is(err, domain.ErrRemoteUpdateRejected):
		body := map[string]interface{}{"error": "remote_update_rejected", "message": err.Error()}
		var remoteErr *domain.RemoteUpdateError
		if errors.As(err, &remoteErr) {
			body["fields"] = remoteErr.Fields
		}
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case errors.As(err, &persistenceErr):
		body := map[string]string{"error": "persistence_error", "message": err.Error()}
		if persistenceErr.StaleLocal {
			body["detail"] = "catalog update applied, local record is stale"
		}
		writeJSON(w, http.StatusInternalServerError, body)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error", "message": err.Error()})
	}
}

func productIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "productID"), 10, 64)
}

// scanHandler triggers a full catalog scan for a shop
func scanHandler(svc *application.AuditService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")
		ctx := domain.WithShopDomain(r.Context(), shop)

		result, err := svc.Scan(ctx, shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Scan failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// rollupHandler returns shop-level issue totals with severity bands
func rollupHandler(svc *application.AuditService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")

		report, err := svc.Rollup(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Rollup failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// issueBreakdownHandler returns the per-finding-count product histogram
func issueBreakdownHandler(svc *application.AuditService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")

		bands, err := svc.IssueBreakdown(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Issue breakdown failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, bands)
	}
}

// creditHandler returns the shop's current credit balance
func creditHandler(creditLedger ports.CreditLedger, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shop := chi.URLParam(r, "shop")

		balance, err := creditLedger.Balance(r.Context(), shop)
		if err != nil {
			logger.Error().Err(err).Str("shop", shop).Msg("Balance read failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
	}
}

// selectHandler marks a batch of products for AI correction
func selectHandler(svc *application.EnhancementService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProductIDs []uint64 `json:"productIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": "invalid request body"})
			return
		}

		if err := svc.SelectForEnhancement(r.Context(), body.ProductIDs); err != nil {
			logger.Error().Err(err).Msg("Selection failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// generateHandler requests an AI proposal for one product
func generateHandler(svc *application.EnhancementService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": "invalid product id"})
			return
		}

		fields, err := svc.Generate(r.Context(), productID)
		if err != nil {
			logger.Error().Err(err).Uint64("productId", productID).Msg("Generation failed")
			// The proposal may be valid even when bookkeeping failed; return
			// it alongside the error so the caller does not pay twice.
			var persistenceErr *domain.PersistenceError
			if fields != nil && errors.As(err, &persistenceErr) {
				writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
					"error":          "persistence_error",
					"message":        err.Error(),
					"proposedFields": fields,
				})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fields)
	}
}

// approveHandler pushes an accepted proposal to the catalog
func approveHandler(svc *application.EnhancementService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": "invalid product id"})
			return
		}

		if err := svc.Approve(r.Context(), productID); err != nil {
			logger.Error().Err(err).Uint64("productId", productID).Msg("Approval failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// rejectHandler archives a proposal without touching the catalog
func rejectHandler(svc *application.EnhancementService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": "invalid product id"})
			return
		}

		if err := svc.Reject(r.Context(), productID); err != nil {
			logger.Error().Err(err).Uint64("productId", productID).Msg("Rejection failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// proposalHandler returns the latest proposal for a product
func proposalHandler(svc *application.EnhancementService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := productIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_input", "message": "invalid product id"})
			return
		}

		fields, err := svc.Proposal(r.Context(), productID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fields)
	}
}
