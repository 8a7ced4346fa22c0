package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/agentcommerce/commerce-api-client/pkg/client"
	"github.com/agentcommerce/commerce-api-client/pkg/logging"
)

func serveCmd() *cobra.Command {
	var (
		configPath string
		listenAddr string
		baseURL    string
		userAgent  string
		logLevel   string
		pretty     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the commerce proxy",
		Long:  "Run the proxy server exposing cached commerce API reads and inventory writes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// Flags override file values when set explicitly.
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listenAddr
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("user-agent") {
				cfg.UserAgent = userAgent
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("pretty") {
				cfg.Pretty = pretty
			}

			logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.Pretty,
				Output: os.Stderr,
			})

			commerceClient, err := buildClient(cfg)
			if err != nil {
				return err
			}
			defer commerceClient.Close()

			httpServer := &http.Server{
				Addr:    cfg.Listen,
				Handler: newServer(commerceClient).routes(),
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().
					Str("addr", cfg.Listen).
					Str("base_url", cfg.BaseURL).
					Str("user_agent", cfg.UserAgent).
					Msg("Commerce proxy started")
				if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutdown proxy: %w", err)
				}
				return nil
			case err := <-errCh:
				return fmt.Errorf("proxy server error: %w", err)
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "Proxy listen address")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Commerce API base URL")
	cmd.Flags().StringVar(&userAgent, "user-agent", "commerce-proxy/0.1.0", "User-Agent sent upstream")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Human-readable console logs")

	return cmd
}

// buildClient assembles the commerce client from the resolved configuration.
func buildClient(cfg serverConfig) (*client.Client, error) {
	clientCfg := client.DefaultConfig(cfg.BaseURL, cfg.UserAgent)
	clientCfg.AccessToken = cfg.AccessToken

	if ttl := cfg.Cache.TTL(); ttl > 0 {
		clientCfg.Cache.DefaultTTL = ttl
	}
	if period := cfg.Cache.CheckPeriod(); period > 0 {
		clientCfg.Cache.CheckPeriod = period
	}
	if cfg.Cache.MaxEntries > 0 {
		clientCfg.Cache.MaxEntries = cfg.Cache.MaxEntries
	}
	if cfg.Cache.Persistent {
		clientCfg.Cache.Persistent = true
		if cfg.Cache.Dir != "" {
			clientCfg.Cache.PersistentDir = cfg.Cache.Dir
		}
		if cfg.Cache.RedisAddr != "" {
			redisClient := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Cache.RedisAddr, err)
			}
			clientCfg.Cache.Redis = redisClient
		}
	}

	return client.New(clientCfg)
}
