package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"async-job-dispatcher/internal/admission"
	"async-job-dispatcher/internal/config"
	"async-job-dispatcher/internal/events"
	"async-job-dispatcher/internal/lifecycle"
	"async-job-dispatcher/internal/store"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	st, err := store.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer st.Close()

	if err := st.RunMigrations(ctx); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("connect nats: %v", err)
	}
	defer nc.Close()

	// Completion-only wiring: no dispatcher needed.
	ctrl := admission.New(st, cfg.MaxConcurrentJobs)
	manager := lifecycle.NewManager(ctrl, st, nil, log)

	sub, err := events.Subscribe(nc, cfg.CompletionSubject, log, func(ev events.Completion) {
		res, err := manager.Complete(ctx, ev.ID)
		switch {
		case err != nil:
			log.WithError(err).WithFields(logrus.Fields{"job_id": ev.ID}).Error("Failed to apply completion")
		case !res.Found:
			log.WithFields(logrus.Fields{"job_id": ev.ID}).Warn("Completion for unknown job")
		case !res.Updated:
			log.WithFields(logrus.Fields{"job_id": ev.ID}).Info("Duplicate completion ignored")
		}
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Infof("listener started on %s", cfg.CompletionSubject)
	<-ctx.Done()
	log.Info("listener stopped")
}
