// Command botengine runs the Bot Automation Engine: it serves the automation
// registration HTTP API and drives the Trigger Loop that compiles and
// executes each active Automation's script against the wired capabilities.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/generalbots/botengine/applications/httpapi"
	"github.com/generalbots/botengine/backends/httpfetch"
	"github.com/generalbots/botengine/backends/llm"
	"github.com/generalbots/botengine/backends/mail"
	"github.com/generalbots/botengine/backends/objectstore"
	"github.com/generalbots/botengine/backends/postgres"
	"github.com/generalbots/botengine/internal/browser"
	"github.com/generalbots/botengine/internal/capability"
	"github.com/generalbots/botengine/internal/keywords"
	"github.com/generalbots/botengine/internal/trigger"
	"github.com/generalbots/botengine/pkg/config"
	"github.com/generalbots/botengine/pkg/logger"
	"github.com/generalbots/botengine/pkg/metrics"
	"github.com/generalbots/botengine/pkg/pgnotify"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (defaults to config or :8080)")
	dsn := flag.String("dsn", "", "PostgreSQL DSN (overrides config/env)")
	configPath := flag.String("config", "", "path to a YAML config file")
	apiTokensFlag := flag.String("api-tokens", "", "comma-separated bearer tokens for the registration API")
	watchTables := flag.Bool("watch-tables", true, "subscribe to LISTEN/NOTIFY as a low-latency accelerator for table-change automations")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if trimmed := strings.TrimSpace(*dsn); trimmed != "" {
		cfg.Database.DSN = trimmed
	}
	if trimmed := strings.TrimSpace(*apiTokensFlag); trimmed != "" {
		cfg.Auth.Tokens = splitAndTrim(trimmed)
	}

	appLog := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := postgres.Open(cfg.Database.ConnectionStringOrDSN())
	if err != nil {
		appLog.Fatalf("connect to postgres: %v", err)
	}
	defer tables.Close()

	automationStore := postgres.NewAutomationStore(tables.DB())
	functionStore := postgres.NewFunctionStore(tables.DB())

	objStore, err := objectstore.New(objectstore.Config{
		Endpoint:        cfg.ObjectStore.Endpoint,
		AccessKeyID:     cfg.ObjectStore.AccessKeyID,
		SecretAccessKey: cfg.ObjectStore.SecretAccessKey,
		UseSSL:          cfg.ObjectStore.UseSSL,
	})
	if err != nil {
		appLog.Fatalf("connect to object store: %v", err)
	}

	mailClient := mail.New(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})

	llmClient := llm.New(llm.Config{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
	})

	fetchClient := httpfetch.New(httpfetch.Config{
		InsecureSkipVerify: cfg.HttpFetch.InsecureSkipVerify,
	})

	browserPool := browser.New(browser.Config{
		Bin:               cfg.Browser.Bin,
		Headless:          cfg.Browser.Headless,
		ViewportWidth:     cfg.Browser.ViewportWidth,
		ViewportHeight:    cfg.Browser.ViewportHeight,
		NavigationTimeout: time.Duration(cfg.Browser.NavigationTimeout) * time.Second,
		MaxSessions:       cfg.Browser.MaxSessions,
	})
	if err := browserPool.Start(rootCtx); err != nil {
		appLog.Fatalf("start browser pool: %v", err)
	}
	defer browserPool.Close()

	caps := &capability.Set{
		Tables:      tables,
		ObjectStore: objStore,
		Mail:        mailClient,
		LLM:         llmClient,
		HttpFetch:   fetchClient,
		Browser:     browserPool,
	}
	bindings := keywords.Build(caps)

	loop := trigger.NewLoop(automationStore, tables, bindings, cfg.Scripts.Dir, appLog)
	go loop.Run(rootCtx)
	defer loop.Stop()

	if *watchTables {
		if bus, err := pgnotify.New(cfg.Database.ConnectionStringOrDSN()); err != nil {
			appLog.WithField("error", err).Warn("pgnotify unavailable, falling back to poll-only table-change detection")
		} else {
			defer bus.Close()
			if err := loop.WatchTables(rootCtx, bus); err != nil {
				appLog.WithField("error", err).Warn("subscribe to table-change notifications")
			}
		}
	}

	handler := httpapi.NewHandler(automationStore, functionStore, cfg.Scripts.Dir, appLog)
	router := httpapi.NewRouter(handler, cfg.Auth.Tokens)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	listenAddr := determineAddr(*addr, cfg)
	server := &http.Server{
		Addr:    listenAddr,
		Handler: metrics.InstrumentHandler(router),
	}

	go func() {
		appLog.Infof("botengine listening on %s", listenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatalf("serve http: %v", err)
		}
	}()

	<-rootCtx.Done()
	appLog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.WithField("error", err).Error("shutdown http server")
	}
}

func loadConfig(path string) (*config.Config, error) {
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		return config.LoadFile(trimmed)
	}
	return config.Load()
}

func determineAddr(flagAddr string, cfg *config.Config) string {
	if trimmed := strings.TrimSpace(flagAddr); trimmed != "" {
		return trimmed
	}
	host := strings.TrimSpace(cfg.Server.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
