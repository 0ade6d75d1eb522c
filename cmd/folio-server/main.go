// folio-server: portfolio backend serving the assistant, the contact relay
// and the chat widget sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-folio/internal/config"
	"github.com/teslashibe/go-folio/internal/log"
	"github.com/teslashibe/go-folio/pkg/assistant"
	"github.com/teslashibe/go-folio/pkg/contact"
	"github.com/teslashibe/go-folio/pkg/knowledge"
	"github.com/teslashibe/go-folio/pkg/web"
)

var (
	version = "0.1.0"

	configFile = flag.String("config", "", "YAML config file (overrides environment)")
	addr       = flag.String("addr", "", "HTTP listen address (default $FOLIO_ADDR or :8080)")
	debug      = flag.Bool("debug", false, "Enable debug logging and request logs")
	kbPath     = flag.String("knowledge", "", "Knowledge base YAML file (default built-in)")
	webhook    = flag.String("webhook", "", "Assistant webhook URL (default $N8N_WEBHOOK_URL)")
)

func main() {
	flag.Parse()

	cfg := config.Load()
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *debug {
		cfg.Server.Debug = true
		cfg.Server.LogLevel = "debug"
	}
	if *kbPath != "" {
		cfg.Assistant.KnowledgePath = *kbPath
	}
	if *webhook != "" {
		cfg.Assistant.WebhookURL = *webhook
	}

	log.Init(cfg.Server.LogLevel, cfg.Server.LogFile)
	defer log.Close()

	if err := run(cfg); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	kb := knowledge.Default()
	if cfg.Assistant.KnowledgePath != "" {
		var err error
		kb, err = knowledge.Load(cfg.Assistant.KnowledgePath)
		if err != nil {
			return err
		}
	}

	logger := log.L()
	chain, err := assistant.NewBackendChain(cfg.Assistant, kb, log.Component("assistant"))
	if err != nil {
		return fmt.Errorf("assistant backends: %w", err)
	}
	gateway, err := assistant.NewGateway(cfg.Assistant, chain, log.Component("gateway"))
	if err != nil {
		return fmt.Errorf("assistant gateway: %w", err)
	}

	var relay *contact.Relay
	if cfg.Contact.ResendKey != "" {
		mailer, err := contact.NewResend(cfg.Contact.ResendKey)
		if err != nil {
			return err
		}
		relay, err = contact.NewRelay(mailer, cfg.Contact, logger)
		if err != nil {
			return err
		}
	} else {
		log.Warn("RESEND_API_KEY not set, contact form disabled")
	}

	web.Version = version
	srv := web.NewServer(cfg, web.Deps{
		Gateway:   gateway,
		Assistant: assistant.NewService(chain, logger),
		Relay:     relay,
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting folio-server",
		"version", version,
		"addr", cfg.Server.Addr,
		"backends", chain.Name(),
		"webhook", cfg.Assistant.WebhookURL != "",
		"contact", relay != nil,
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
