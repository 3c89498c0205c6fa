package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/docuflow/docuflow/handlers"
	"github.com/docuflow/docuflow/internal/config"
	"github.com/docuflow/docuflow/internal/database"
	"github.com/docuflow/docuflow/internal/document/handler"
	docrepo "github.com/docuflow/docuflow/internal/document/repository"
	docservice "github.com/docuflow/docuflow/internal/document/service"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/internal/upload"
	"github.com/docuflow/docuflow/pkg/logger"
	"github.com/docuflow/docuflow/pkg/metrics"
	"github.com/docuflow/docuflow/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: storage=%v mongo=%v redis=%v", cfg.Storage.Endpoint != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Connect to Redis early so the rate-limiter and upload sessions can use it
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			rdb = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Object store signer — required: the whole upload workflow delegates
	// byte transfer to presigned URLs.
	signer, err := storage.NewMinIOSigner(cfg.StorageClientConfig())
	if err != nil {
		logger.Fatalf("failed to initialize object storage: %v", err)
	}

	// Mongo-backed documents when configured, memory otherwise (dev/test)
	ctx := context.Background()
	var mongoClient *mongo.Client
	var documents docrepo.Repository
	var pending upload.Repository
	if cfg.MongoDB.URI != "" {
		// Retry/backoff when connecting to MongoDB to tolerate startup races
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
		} else {
			defer func() { _ = mongoClient.Disconnect(ctx) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			documents = docrepo.NewMongoRepo(db.Collection("documents"))
			pending = upload.NewMongoRepository(db.Collection("pending_uploads"))
		}
	}
	if documents == nil {
		logger.Warnf("using memory-backed document repository")
		documents = docrepo.NewMemoryRepo()
	}
	// Prefer Redis for pending uploads: TTL expiry and atomic consume come
	// for free, and sessions are short-lived anyway.
	if rdb != nil {
		pending = upload.NewRedisRepository(rdb, "upload:")
		logger.Infof("using Redis for pending upload sessions")
	}
	if pending == nil {
		logger.Warnf("using memory-backed pending upload repository")
		pending = upload.NewMemoryRepo()
	}

	uploadSvc := upload.NewService(upload.Config{
		Bucket:           cfg.Storage.Bucket,
		SignedURLTTL:     cfg.Storage.SignedURLTTL,
		SessionTTL:       cfg.Storage.UploadSessionTTL,
		StorageTimeout:   cfg.Storage.RequestTimeout,
		AllowedMIMETypes: cfg.Documents.AllowedMIMETypes,
		MaxFileSize:      cfg.Documents.MaxFileSize,
	}, pending, documents, signer)
	docSvc := docservice.NewService(documents, signer, cfg.Storage.SignedURLTTL, cfg.Storage.RequestTimeout)

	handler.RegisterDocumentRoutes(r, uploadSvc, docSvc)
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		// object store readiness: stat the bucket with a short timeout
		sctx, cancel := context.WithTimeout(c.Request.Context(), cfg.Storage.RequestTimeout)
		defer cancel()
		if _, err := signer.ObjectExists(sctx, ".readycheck"); err != nil {
			deps["storage"] = false
			ready = false
		} else {
			deps["storage"] = true
		}

		deps["mongo"] = mongoClient != nil || cfg.MongoDB.URI == ""
		if !deps["mongo"] {
			ready = false
		}
		deps["redis"] = rdb != nil || cfg.Redis.Host == ""
		if !deps["redis"] {
			ready = false
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting document service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
