package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"crmdash/cache"
	"crmdash/config"
	"crmdash/crm"
	"crmdash/dashboard"
	"crmdash/engine"
	"crmdash/messaging"
	"crmdash/orders"
	"crmdash/store"
	"crmdash/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "crmdash.yaml", "path to config file")
	writeConfig := flag.Bool("write-config", false, "write the effective config to -config and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("crmdash", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *writeConfig {
		if err := cfg.Save(*configPath); err != nil {
			log.Fatalf("write config: %v", err)
		}
		log.Printf("crmdash: config written to %s", *configPath)
		return
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("crmdash: database open (%s)", cfg.Database.Driver)

	// Redis (optional order cache)
	var (
		orderCache crm.OrderCache
		cachePing  engine.Pinger
	)
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		rs := cache.NewRedisStore(redisClient)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rs.Ping(ctx); err != nil {
			log.Printf("crmdash: redis not available (%v), running without cache", err)
		} else {
			log.Printf("crmdash: redis connected (%s)", cfg.Redis.Address)
			orderCache = rs
			cachePing = rs
		}
		cancel()
	}

	// CRM order backend
	crmClient := crm.NewClient(crm.ClientConfig{
		APIURL:          cfg.CRM.APIURL,
		APIKey:          cfg.CRM.APIKey,
		PageLimit:       cfg.CRM.PageLimit,
		DeliveryKeyword: cfg.CRM.DeliveryKeyword,
		Timeout:         cfg.CRM.Timeout,
	})
	if crmClient.APIURL() == "" {
		log.Printf("crmdash: crm.api_url not set, /api/orders and /api/summary will fail")
	}
	crmService := crm.NewService(crm.ServiceConfig{
		Fetcher:  crmClient,
		Cache:    orderCache,
		CacheTTL: cfg.CRM.CacheTTL,
		Rules: orders.StatusRules{
			Approved:  cfg.CRM.ApprovedStatuses,
			Delivered: cfg.CRM.DeliveredStatuses,
		},
	})

	// Dashboard upstream
	source := dashboard.NewClient(cfg.Dashboard.APIURL, cfg.Dashboard.Timeout)
	log.Printf("crmdash: dashboard reads from %s", source.BaseURL())

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("crmdash: messaging connect failed (%v)", err)
	} else if msgClient.Enabled() {
		log.Printf("crmdash: messaging connected (%s)", msgClient.Backend())
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Source:    source,
		CRM:       crmService,
		Cache:     cachePing,
		MsgClient: msgClient,
	})
	eng.Start()
	defer eng.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("crmdash: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("crmdash: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("crmdash: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("crmdash: stopped")
}
