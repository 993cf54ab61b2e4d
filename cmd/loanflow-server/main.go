// Command loanflow-server runs the mail relay the loan-application wizard
// submits to.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zofin/loanflow/internal/config"
	"github.com/zofin/loanflow/internal/mail"
	"github.com/zofin/loanflow/internal/relay"
)

func main() {
	envFile := flag.String("env", ".env", "path to the environment file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logConfig := zap.NewProductionConfig()
	if *verbose {
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logConfig.Build()
	if err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*envFile, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(envFile string, logger *zap.Logger) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if err := cfg.ValidateSMTP(); err != nil {
		return err
	}

	sender, err := mail.NewSMTPSender(cfg.SMTP)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	handler := relay.NewHandler(
		mail.NewComposer(cfg.SMTP.FromName),
		sender,
		cfg.SMTP.Operator,
		logger,
		relay.WithAllowedOrigin(cfg.AllowedOrigin),
	)
	handler.Register(router)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
