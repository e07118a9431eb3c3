package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"async-job-dispatcher/internal/config"
	"async-job-dispatcher/internal/events"
	"async-job-dispatcher/internal/queue"
	"async-job-dispatcher/internal/runner"
	"async-job-dispatcher/internal/telemetry"
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

	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("connect nats: %v", err)
	}
	defer nc.Close()

	q := queue.NewRedisQueue(cfg)
	pub := events.NewPublisher(nc, cfg.CompletionSubject)

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			log.Warnf("metrics server stopped: %v", err)
		}
	}()

	log.Infof("runner started (queue=%s subject=%s)", cfg.DispatchQueue, cfg.CompletionSubject)
	r := runner.New(q, pub, cfg.DequeueTimeout, log)
	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("runner stopped: %v", err)
	}
}
