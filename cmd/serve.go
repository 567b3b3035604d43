package cmd

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/krishi-mitra/internal/accounts"
	"github.com/ziadkadry99/krishi-mitra/internal/db"
	"github.com/ziadkadry99/krishi-mitra/internal/history"
	"github.com/ziadkadry99/krishi-mitra/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the krishi HTTP server with the flow API, the chat WebSocket,
farmer accounts, the farm diary and the flow run log.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Server.Port = servePort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := newFlowService(ctx, cfg, logger)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		secret := cfg.Auth.JWTSecret
		if secret == "" {
			secret, err = randomSecret()
			if err != nil {
				return err
			}
			logger.Warn("auth.jwt_secret not set; using a random secret, sessions end on restart")
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, server.Deps{
			DB:       database,
			Flows:    svc,
			Accounts: accounts.NewService(accounts.NewStore(database), secret, cfg.Auth.TokenTTL),
			History:  history.NewStore(database),
			Logger:   logger,
		})

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("krishi server starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Server.Port),
			zap.String("database", cfg.DBPath()),
			zap.String("provider", string(cfg.Provider)),
			zap.String("model", cfg.Model),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
