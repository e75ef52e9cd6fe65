package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/sendgrid-source/internal/app"
	"github.com/ignite/sendgrid-source/internal/config"
	"github.com/ignite/sendgrid-source/internal/extract"
	"github.com/ignite/sendgrid-source/internal/notify"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/pkg/templates"
	"github.com/ignite/sendgrid-source/internal/runevents"
	"github.com/ignite/sendgrid-source/internal/runlock"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/sendgrid"
	"github.com/ignite/sendgrid-source/internal/sink"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"
)

func main() {
	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Server.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.ResolveSecrets(ctx, cfg); err != nil {
		log.Fatalf("[Extract] Secret resolution failed: %v", err)
	}

	srcCfg := source.New(cfg.Source)

	rdb := app.ConnectRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}

	var db *sql.DB
	if cfg.Sink.DatabaseURL != "" {
		db, err = app.OpenPostgres(ctx, cfg.Sink.DatabaseURL)
		if err != nil {
			log.Fatalf("[Extract] %v", err)
		}
		defer db.Close()
	}

	runner := &extract.Runner{
		Config:    srcCfg,
		Validator: app.NewValidator(cfg, rdb, validation.WithReferenceName()),
		Fetcher:   sendgrid.NewClient(cfg.SendGrid, srcCfg.Credentials()),
		OpenSink:  func(ctx context.Context, out schema.Schema) (sink.Sink, error) {
			return app.NewSink(ctx, cfg, out, db)
		},
	}

	if lock, err := runlock.ForSource(rdb, db, srcCfg.ReferenceName(), cfg.Redis.LockTTL()); err == nil {
		runner.Lock = lock
	} else {
		log.Printf("[Extract] Running without run lock: %v", err)
	}

	if cfg.Notify.Enabled {
		if failures := notify.Validate(cfg.Notify); len(failures) > 0 {
			for _, f := range failures {
				log.Printf("[Extract] notify: %s", f.Message)
			}
			log.Fatalf("[Extract] Post-run action configuration is invalid")
		}
		sg := sendgrid.NewClient(cfg.SendGrid, source.Credentials{Type: source.AuthAPI, APIKey: cfg.Notify.APIKey})
		mailer, err := notify.NewMailer(ctx, cfg.Notify, sg)
		if err != nil {
			log.Fatalf("[Extract] Post-run action setup failed: %v", err)
		}
		action, err := notify.New(cfg.Notify, mailer, templates.New())
		if err != nil {
			log.Fatalf("[Extract] Post-run action setup failed: %v", err)
		}
		runner.Notifier = action
	}

	if cfg.Events.Enabled() {
		pub, err := runevents.NewPublisher(ctx, cfg.Events.QueueURL, cfg.Events.Region)
		if err != nil {
			log.Fatalf("[Extract] Run events setup failed: %v", err)
		}
		runner.Events = pub
	}

	res, err := runner.Run(ctx)
	if err != nil {
		for _, f := range res.Failures {
			log.Printf("[Extract] %s: %s %v", f.Kind, f.Message, f.Properties)
		}
		log.Fatalf("[Extract] Run %s failed: %v", res.RunID, err)
	}
	log.Printf("[Extract] Run %s finished: %d rows", res.RunID, res.Stats.Total())
}
