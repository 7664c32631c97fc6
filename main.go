package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-messaging/api/auth"
	"marketplace-messaging/api/chat"
	"marketplace-messaging/config"
	"marketplace-messaging/dao"
	"marketplace-messaging/dao/memdao"
	"marketplace-messaging/messaging"
	"marketplace-messaging/observability"
	"marketplace-messaging/utils"
	"marketplace-messaging/utils/events"
	"marketplace-messaging/utils/notifications"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := observability.Logger()

	stores, cleanup, err := initStorage(cfg)
	if err != nil {
		log.Fatalf("failed to initialize storage, err: %v", err)
	}
	defer cleanup()

	opts := []messaging.Option{messaging.WithPageSize(cfg.NotificationPageSize)}
	if mailer := initMailer(cfg); mailer != nil {
		opts = append(opts, messaging.WithAlerter(notifications.NewEmailAlerter(mailer)))
	}
	if cfg.NatsURL != "" {
		publisher, err := events.Connect(cfg.NatsURL, cfg.NatsSubjectPrefix)
		if err != nil {
			log.Fatalf("failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		opts = append(opts, messaging.WithPublisher(publisher))
	}

	svc := messaging.NewService(stores.messages, stores.notifications, stores.directory, opts...)
	chatService := chat.NewChatService(svc, cfg.PollInterval)
	authenticator := auth.New(cfg.JWTSecret)

	r := initRoutes(chatService, authenticator)
	r.Use(observability.RequestID)
	r.Use(func(next http.Handler) http.Handler {
		return handlers.LoggingHandler(os.Stdout, next)
	})

	header := handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", observability.RequestIDHeader})
	methods := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "HEAD", "OPTIONS"})
	origins := handlers.AllowedOrigins([]string{"*"})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.CORS(header, methods, origins)(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("running server", "port", cfg.Port, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error shutting down server", "error", err)
	}
	if err := svc.Drain(ctx); err != nil {
		logger.Error("pending alerts dropped", "error", err)
	}
}

func initRoutes(chatService *chat.Service, authenticator *auth.Authenticator) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithOk(w, "marketplace-messaging")
	})
	v1 := r.PathPrefix("/api/v1").Subrouter()
	chatService.Register(v1, authenticator.UseAuth)

	return r
}

type storage struct {
	messages      messaging.MessageStore
	notifications messaging.NotificationStore
	directory     messaging.Directory
}

func initStorage(cfg *config.Config) (*storage, func(), error) {
	if cfg.StorageBackend == config.StorageMemory {
		observability.Logger().Warn("using in-memory storage, data is lost on restart")
		return &storage{
			messages:      memdao.NewMessageStore(),
			notifications: memdao.NewNotificationStore(),
			directory:     memdao.NewDirectory(),
		}, func() {}, nil
	}

	client, err := dao.Initialize(cfg.MongoURI, cfg.MongoUser, cfg.MongoPass)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Println(err)
		}
	}

	factoryDAO, err := initCollections(client, cfg.MongoDB)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &storage{
		messages:      factoryDAO.Messages(),
		notifications: factoryDAO.Notifications(),
		directory:     factoryDAO.Directory(),
	}, cleanup, nil
}

func initCollections(client *mongo.Client, dbname string) (*dao.FactoryDAO, error) {
	factoryDAO := dao.NewFactoryDAO(client.Database(dbname))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := factoryDAO.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return factoryDAO, nil
}

func initMailer(cfg *config.Config) utils.Mailer {
	switch cfg.EmailBackend {
	case config.EmailMailgun:
		return utils.NewMailgunMailer(utils.MailgunConfig{
			Domain:     cfg.MailgunDomain,
			PrivateKey: cfg.MailgunKey,
			From:       cfg.MailFrom,
		})
	case config.EmailSMTP:
		return utils.NewSMTPMailer(utils.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Sender:   cfg.EmailSender,
			Password: cfg.EmailSenderPass,
			From:     cfg.MailFrom,
		})
	default:
		return nil
	}
}
