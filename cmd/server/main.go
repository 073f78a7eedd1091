package main

import (
	"context"
	"errors"
	"log"
	nethttp "net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"commerce-service/internal/cache"
	"commerce-service/internal/config"
	"commerce-service/internal/controllers/http"
	"commerce-service/internal/infra/database"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/infra/mail"
	"commerce-service/internal/infra/rabbitmq"
	"commerce-service/internal/infra/storage"
	"commerce-service/internal/notification"
	"commerce-service/internal/pricing"
	"commerce-service/internal/repository/gormstore"
	"commerce-service/internal/repository/memory"
	"commerce-service/internal/services"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	repos, err := buildRepositories(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}

	var publisher rabbitmq.PublisherInterface = rabbitmq.LogPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		defer p.Close()
		publisher = p
	} else {
		log.Println("RABBITMQ_URL not set, order events go to the log")
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Fatalf("mail templates: %v", err)
	}
	var transport notification.Transport = mail.NewLogTransport(renderer)
	if cfg.Mail.Host != "" {
		transport = mail.NewSMTPTransport(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}, renderer)
	} else {
		log.Println("SMTP_HOST not set, emails go to the log")
	}
	dispatcher := notification.NewDispatcher(transport, notification.Options{
		Workers: cfg.Mail.Workers,
		Buffer:  cfg.Mail.Buffer,
	})

	orders := services.NewOrderService(repos, publisher, dispatcher, pricing.Options{
		Shipping: cfg.Pricing.ShippingFlatRate,
		TaxRate:  cfg.Pricing.TaxRate,
	})

	catalog := services.NewCatalogService(repos, nil)
	if cfg.Redis.Addr != "" {
		rdb, err := cache.ConnectRedis(cfg.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()

		products := cache.NewProductCache(repos.Products, rdb, cfg.Redis.ProductTTL)
		orders.SetCaches(products, cache.NewOrderListCache(rdb, cfg.Redis.OrdersTTL))
		catalog = services.NewCatalogService(repos, products)
	}

	registry := gateway.NewRegistry(enabledGateways(cfg.Gateways)...)
	log.Printf("payment gateways: %s", strings.Join(registry.Names(), ", "))

	files := storage.NewDiskStore(cfg.Uploads.Dir, cfg.Uploads.PublicURL)

	handler := http.NewHandler(http.Services{
		Orders:    orders,
		Payments:  services.NewPaymentService(repos, registry, orders),
		Catalog:   catalog,
		Customers: services.NewCustomerService(repos, dispatcher, cfg.Auth.JWTSecret, cfg.Auth.ResetTokenTTL),
		Uploads:   services.NewUploadService(repos, files, cfg.Uploads.MaxBytes),
	}, cfg.Auth.JWTSecret, cfg.Uploads.MaxBytes)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	if strings.HasPrefix(cfg.Uploads.PublicURL, "/") {
		r.Static(cfg.Uploads.PublicURL, cfg.Uploads.Dir)
	}
	handler.RegisterRoutes(r)

	srv := &nethttp.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting commerce service on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		// requests are drained, so no new emails can be queued
		return dispatcher.Close(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server stopped: %v", err)
	}
}

func buildRepositories(cfg config.DatabaseConfig) (services.Repositories, error) {
	if cfg.Driver == "memory" {
		log.Println("DB_DRIVER=memory, data is lost on restart")
		store := memory.NewStore()
		return services.Repositories{
			Tx:         store,
			Products:   store.Products(),
			Categories: store.Categories(),
			Customers:  store.Customers(),
			Orders:     store.Orders(),
			Payments:   store.Payments(),
			Coupons:    store.Coupons(),
			Uploads:    store.Uploads(),
		}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return services.Repositories{}, err
	}
	return services.Repositories{
		Tx:         gormstore.NewTransactor(db),
		Products:   gormstore.NewProductRepository(db),
		Categories: gormstore.NewCategoryRepository(db),
		Customers:  gormstore.NewCustomerRepository(db),
		Orders:     gormstore.NewOrderRepository(db),
		Payments:   gormstore.NewPaymentRepository(db),
		Coupons:    gormstore.NewCouponRepository(db),
		Uploads:    gormstore.NewUploadRepository(db),
	}, nil
}

func enabledGateways(cfg config.GatewaysConfig) []gateway.Gateway {
	conf := func(c config.GatewayConfig) gateway.Config {
		return gateway.Config{
			BaseURL:       c.BaseURL,
			APIKey:        c.APIKey,
			WebhookSecret: c.WebhookSecret,
			Timeout:       cfg.Timeout,
		}
	}

	var out []gateway.Gateway
	if c := conf(cfg.Pix); c.Enabled() {
		out = append(out, gateway.NewPixGateway(c))
	}
	if c := conf(cfg.Card); c.Enabled() {
		out = append(out, gateway.NewCardGateway(c))
	}
	if c := conf(cfg.Boleto); c.Enabled() {
		out = append(out, gateway.NewBoletoGateway(c))
	}
	if c := conf(cfg.Wallet); c.Enabled() {
		out = append(out, gateway.NewWalletGateway(c))
	}
	return out
}
