package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/stdtrack/stdtrack/handlers"
	"github.com/stdtrack/stdtrack/internal/config"
	"github.com/stdtrack/stdtrack/internal/database"
	"github.com/stdtrack/stdtrack/internal/filestore"
	"github.com/stdtrack/stdtrack/internal/lineage"
	lineagerepo "github.com/stdtrack/stdtrack/internal/lineage/repository"
	"github.com/stdtrack/stdtrack/internal/oidc"
	"github.com/stdtrack/stdtrack/internal/registry"
	"github.com/stdtrack/stdtrack/internal/sessions"
	"github.com/stdtrack/stdtrack/pkg/logger"
	"github.com/stdtrack/stdtrack/pkg/metrics"
	"github.com/stdtrack/stdtrack/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v storage=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Storage.Backend)

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple; production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate limiter, session store and
	// standards cache can use it when configured.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races.
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
			mongoClient = nil
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
		}
	}

	// Payload storage: MinIO for deployments, local disk otherwise.
	var files filestore.Store
	if cfg.Storage.Backend == "minio" {
		ms, err := filestore.NewMinIOStore(filestore.LoadMinIOConfig())
		if err != nil {
			logger.Fatalf("failed to initialize MinIO store: %v", err)
		}
		files = ms
	} else {
		ls, err := filestore.NewLocalStore(cfg.Storage.DataDir)
		if err != nil {
			logger.Fatalf("failed to initialize local store: %v", err)
		}
		files = ls
	}

	// Meeting and catalog persistence: Mongo when available, in-memory
	// fallback for development runs without a database.
	var (
		meetingStore lineage.Store
		catalog      registry.Catalog
	)
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		meetingStore = lineagerepo.NewMongoStore(db.Collection("meetings"))
		catalog = registry.NewMongoCatalog(db.Collection("standards"))
	} else {
		logger.Warnf("MongoDB unavailable; using in-memory stores (data is not persisted)")
		meetingStore = lineagerepo.NewMemoryStore()
		catalog = registry.NewMemoryCatalog()
	}

	engine := lineage.NewEngine(meetingStore)
	regSvc := registry.NewService(catalog, meetingStore, files)
	if redisClient != nil {
		regSvc.WithCache(registry.NewCache(redisClient, time.Minute))
	}

	// Sessions: Redis when available, Mongo next, memory as last resort.
	seed := sessions.Credentials{ChairPassword: cfg.Auth.ChairPassword, ContributorPassword: cfg.Auth.ContributorPassword}
	var (
		sessRepo sessions.Repository
		creds    sessions.CredentialStore
		logins   sessions.LoginRecorder
	)
	switch {
	case redisClient != nil:
		sessRepo = sessions.NewRedisRepository(redisClient, "session:")
		logger.Infof("Using Redis for session storage")
	case mongoClient != nil:
		sessRepo = sessions.NewMongoRepository(mongoClient.Database(cfg.MongoDB.Database).Collection("sessions"))
	default:
		sessRepo = sessions.NewMemoryRepository()
	}
	if mongoClient != nil {
		db := mongoClient.Database(cfg.MongoDB.Database)
		creds = sessions.NewMongoCredentialStore(db.Collection("auth"), seed)
		logins = sessions.NewMongoLoginRecorder(db.Collection("logins"))
	} else {
		creds = sessions.NewMemoryCredentialStore(seed)
		logins = sessions.NewMemoryLoginRecorder()
	}
	sessionsSvc := sessions.NewService(sessRepo, creds, logins, cfg.Auth.SessionTTL)

	// Optional OIDC verifier for institutional single sign-on.
	var verifier middleware.Verifier
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" && cfg.Keycloak.Realm != "" {
		issuer := strings.TrimRight(cfg.Keycloak.URL, "/") + "/realms/" + cfg.Keycloak.Realm
		ver, err := oidc.NewVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure OIDC verifier (integration mode)")
		verifier = oidc.NewInsecureVerifier()
	}

	authHandler := handlers.NewAuthHandler(cfg, sessionsSvc)

	// Identity resolution runs before the rate limiter so authenticated
	// callers are limited per user rather than per IP.
	r.Use(middleware.Authentication(authHandler, verifier))
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["mongo"] = mongoClient == nil || mongoClient.Ping(c.Request.Context(), nil) == nil
		if !deps["mongo"] {
			ready = false
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil && redisClient.Ping(c.Request.Context()).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		label := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			label = "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	api := r.Group("/api")
	authHandler.Register(api)
	handlers.NewStandardsHandler(regSvc).Register(api)
	handlers.NewMeetingsHandler(regSvc, engine).Register(api)
	handlers.NewDocumentsHandler(engine, files).Register(api)

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting stdtrack service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
