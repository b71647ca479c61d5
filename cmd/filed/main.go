// Command filed runs the file-management server: a single TCP listener
// accepting control connections that drive filesystem operations,
// uploads/downloads, a restricted shell, and a background search index.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/manos-filed/filed/internal/config"
	"github.com/manos-filed/filed/internal/index"
	"github.com/manos-filed/filed/internal/lockreg"
	"github.com/manos-filed/filed/internal/notify"
	"github.com/manos-filed/filed/internal/server"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Default()
	locks := lockreg.New()
	idx := index.New()
	notifier := notify.NewLoggingNotifier(log)

	srv := server.New(cfg, locks, idx, notifier, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info("filed: signal received, shutting down")
		os.Exit(0)
	}()

	if err := srv.Run(); err != nil {
		log.WithError(err).Fatal("filed: server exited")
	}
}
