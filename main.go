package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/config"
	"breakfast-order-service/internal/docstore"
	"breakfast-order-service/internal/frontdesk"
	httpapi "breakfast-order-service/internal/http"
	"breakfast-order-service/internal/http/handlers"
	"breakfast-order-service/internal/logger"
	"breakfast-order-service/internal/queue"
	"breakfast-order-service/internal/report"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/internal/storage"
	"breakfast-order-service/internal/ws"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	policy, err := cfg.Policy()
	if err != nil {
		log.Fatal("ordering window config invalid", zap.Error(err))
	}

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	store, err := docstore.Open(ctx, cfg.StoreOptions(), log)
	if err != nil {
		log.Fatal("order store connection failed", zap.Error(err))
	}
	defer store.Close()

	var objectStore *storage.ObjectStore
	if cfg.ObjectStoreEnabled() {
		objectStore, err = storage.NewObjectStore(ctx, storage.Config{
			Endpoint:        cfg.ObjectStoreEndpoint,
			Region:          cfg.ObjectStoreRegion,
			AccessKeyID:     cfg.ObjectStoreAccessKeyID,
			SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
			Bucket:          cfg.ObjectStoreBucket,
			PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
			StorageClass:    cfg.ObjectStoreStorageClass,
		})
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("object store init failed", zap.Error(err))
			}
			log.Warn("object store init failed; report archive disabled", zap.Error(err))
			objectStore = nil
		}
	} else {
		log.Info("report archive disabled (OBJECT_STORE_* is not configured)")
	}

	menu := catalog.Default()
	rooms := roster.Default()

	var uploader report.Uploader
	if objectStore != nil {
		uploader = objectStore
	}
	reports := report.NewGenerator(store, menu, rooms, uploader, report.PDFOptions{FontPath: cfg.ReportFontPath}, log)

	var queueClient *queue.Client
	if cfg.RabbitMQURL != "" {
		log.Info("rabbitmq enabled", zap.String("exchange", queue.EventsExchange))
		qc, err := queue.New(cfg.RabbitMQURL)
		if err != nil {
			if cfg.Env == "production" {
				log.Fatal("rabbitmq connection failed", zap.Error(err))
			}
			log.Warn("rabbitmq connection failed; continuing without events", zap.Error(err))
			qc = nil
		}
		if qc != nil {
			if err := queue.EnsureTopology(ctx, qc); err != nil {
				if cfg.Env == "production" {
					log.Fatal("rabbitmq topology failed", zap.Error(err))
				}
				log.Warn("rabbitmq topology failed; continuing without events", zap.Error(err))
				_ = qc.Close()
				qc = nil
			}
		}

		queueClient = qc
		if qc != nil {
			defer qc.Close()
		}

		if queueClient != nil {
			if cfg.RabbitMQWorkerMode == "daemon" && reports.CanArchive() {
				log.Info("report archive worker enabled", zap.String("mode", "daemon"), zap.String("queue", queue.ArchiveQueue))
				go func() {
					err := queueClient.ConsumeWithRetry(ctx, queue.ArchiveQueue, queue.ArchiveHandler(reports), queue.ArchiveMaxRetries, queue.ArchiveRetryDelay)
					if err != nil && ctx.Err() == nil {
						log.Error("archive consumer stopped", zap.Error(err))
					}
				}()
			} else {
				log.Info("report archive worker disabled", zap.String("mode", cfg.RabbitMQWorkerMode), zap.Bool("archive", reports.CanArchive()))
			}
		}
	} else {
		log.Info("order events disabled (RABBITMQ_URL is empty)")
	}

	opts := []frontdesk.Option{frontdesk.WithLogger(log)}
	var publisher *queue.Publisher
	if queueClient != nil {
		publisher = queue.NewPublisher(queueClient)
		opts = append(opts, frontdesk.WithEvents(publisher))
	}
	service := frontdesk.New(store, menu, rooms, policy, opts...)

	h := &handlers.Handler{Logger: log, Config: cfg, Service: service, Reports: reports}
	if publisher != nil && reports.CanArchive() && cfg.RabbitMQWorkerMode == "daemon" {
		h.Queue = publisher
	}
	if objectStore != nil {
		h.Archive = objectStore
	}

	wsServer := ws.New(log, cfg, service)
	apiServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(log, cfg, h, wsServer),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("breakfast api ready", zap.String("base", "/api"))
		log.Info("breakfast ws ready", zap.String("base", "/ws"))
		log.Info("breakfast service listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("timezone", cfg.Timezone),
			zap.String("cutoff", cfg.OrderCutoff),
		)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancelWorkers()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
}
