package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qaflow-backend-go/internal/ai"
	"qaflow-backend-go/internal/api"
	"qaflow-backend-go/internal/config"
	"qaflow-backend-go/internal/core"
	"qaflow-backend-go/internal/db"
	"qaflow-backend-go/internal/identity"
	"qaflow-backend-go/internal/kvstore"
	"qaflow-backend-go/internal/middleware"
)

func main() {
	// --- 1. Initialize Logger (Zap) ---
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Zap logger initialized successfully.")

	// --- 2. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded successfully.")

	// --- 3. Initialize Firebase Admin SDK (Firestore and Auth clients) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	if err := db.InitFirestore(initCtx, appConfig); err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firestore and Firebase Admin SDK", zap.Error(err))
	}
	firestoreClient := db.GetFirestoreClient()
	firebaseAuthClient := db.GetFirebaseAuthClient()
	if firestoreClient == nil || firebaseAuthClient == nil {
		zapLogger.Fatal("CRITICAL_ERROR: Firebase clients are nil after initialization. Application cannot start.")
	}
	zapLogger.Info("Firebase Admin SDK (Firestore, Auth) initialized successfully.")

	// --- 4. Initialize Key-Value Store (Redis with in-memory fallback) ---
	var kv kvstore.Store
	redisStore, err := kvstore.NewRedisStore(initCtx, kvstore.NewRedisStoreConfig{
		Address:  appConfig.RedisAddress,
		Password: appConfig.RedisPassword,
		DB:       appConfig.RedisDB,
	})
	if err != nil {
		zapLogger.Warn("Redis unavailable; falling back to in-memory store. Active-suite selections will not survive restarts.",
			zap.String("address", appConfig.RedisAddress), zap.Error(err))
		kv = kvstore.NewMemoryStore()
	} else {
		defer redisStore.Close()
		kv = redisStore
		zapLogger.Info("Redis key-value store connected.", zap.String("address", appConfig.RedisAddress))
	}

	// --- 5. Initialize Repositories ---
	profileRepo := db.NewFirestoreProfileRepository(firestoreClient)
	suiteRepo := db.NewFirestoreSuiteRepository(firestoreClient)
	reportRepo := db.NewFirestoreBugReportRepository(firestoreClient)
	sprintRepo := db.NewFirestoreSprintRepository(firestoreClient)
	auditRepo := db.NewFirestoreAuditRepository(firestoreClient)
	zapLogger.Info("Repositories initialized successfully.")

	// --- 6. Initialize Core Services ---
	auditService := core.NewAuditService(auditRepo, zapLogger)
	suiteService := core.NewSuiteService(suiteRepo, profileRepo, auditService, zapLogger, nil)
	generator := ai.NewHTTPGenerator(appConfig.AIGenerationURL, appConfig.AIGenerationAPIKey)
	reportService := core.NewBugReportService(reportRepo, suiteRepo, profileRepo, generator, auditService, zapLogger, nil)
	sprintService := core.NewSprintService(sprintRepo, suiteRepo, auditService, zapLogger, nil)

	sessions := core.NewSessionManager(profileRepo, suiteRepo, kv, zapLogger, nil)
	sessions.SetExpiryHandler(suiteService)
	zapLogger.Info("Core services initialized successfully.")

	// --- 7. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 8. Apply Global Middleware (order matters) ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured.")
	}

	// --- 9. Setup API Routes ---
	provider := identity.NewFirebaseProvider(firebaseAuthClient)
	api.SetupRoutes(router, zapLogger, provider, sessions, suiteService, reportService, sprintService)

	// --- 10. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 11. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Fatal("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
