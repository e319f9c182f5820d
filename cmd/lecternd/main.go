package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lecternlabs/lectern/pkg/logger"
	"github.com/lecternlabs/lectern/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to TOML config file (flags override it)")
	listenAddr := flag.String("listen", "", "Address to listen on")
	upstreamURL := flag.String("upstream", "", "Upstream AI producer URL")
	dbPath := flag.String("db", "", "Path to SQLite database (default: in-memory)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	config := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		config = loaded
	}
	if *listenAddr != "" {
		config.ListenAddr = *listenAddr
	}
	if *upstreamURL != "" {
		config.UpstreamURL = *upstreamURL
	}
	if *dbPath != "" {
		config.DBPath = *dbPath
	}
	if *debug {
		config.Debug = true
	}

	// Set up logger
	logger, level := logger.NewLogger(config.Debug)
	defer logger.Sync()

	logger.Info("lectern server starting",
		zap.String("listen", config.ListenAddr),
		zap.String("upstream", config.UpstreamURL),
		zap.Bool("debug", config.Debug),
	)

	// Live-reload the debug toggle from the config file; address changes
	// need a restart.
	if *configPath != "" {
		stop, err := server.WatchConfig(*configPath, logger, func(next server.Config) {
			if next.Debug {
				level.SetLevel(zapcore.DebugLevel)
			} else {
				level.SetLevel(zapcore.InfoLevel)
			}
		})
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			defer stop()
		}
	}

	s, err := server.New(config, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}
	defer s.Close()

	if err := s.Run(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
