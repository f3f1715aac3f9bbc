package server

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sechub/pkg/config"
	"sechub/pkg/logger"
)

// Main is the gateway entrypoint: subcommand handling, flag parsing,
// configuration, and the run-until-signal loop.
func Main() {
	if len(os.Args) > 1 && (os.Args[len(os.Args)-1] == "-h" || os.Args[len(os.Args)-1] == "--help") {
		fs := flag.NewFlagSet("sechubd", flag.ContinueOnError)
		registerFlags(fs)
		printHelp(fs)
		return
	}

	// Subcommands: start|stop|restart|status (default: start)
	command := "start"
	if len(os.Args) > 1 {
		first := os.Args[1]
		if first == "start" || first == "stop" || first == "restart" || first == "status" {
			command = first
			os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
		}
	}

	instanceMgr := NewInstanceManager()

	switch command {
	case "status":
		if running, pid := instanceMgr.IsRunning(); running {
			fmt.Printf("Gateway running (PID %d)\n", pid)
		} else {
			fmt.Println("Gateway not running")
		}
		return
	case "stop":
		if err := instanceMgr.Kill(); err != nil {
			fmt.Printf("Stop failed: %v\n", err)
		} else {
			fmt.Println("Gateway stopped")
		}
		return
	case "restart":
		_ = instanceMgr.Kill()
		fmt.Println("Restarting gateway...")
	case "start":
		if running, pid := instanceMgr.IsRunning(); running {
			fmt.Printf("Gateway already running (PID %d)\n", pid)
			return
		}
	}

	addr := flag.String("addr", "", "Listen address (overrides config)")
	configPath := flag.String("config", "", "Config file path (optional)")
	certFile := flag.String("cert", "", "TLS certificate file")
	keyFile := flag.String("key", "", "TLS key file")
	useTLS := flag.Bool("tls", false, "Enable TLS")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "Log format: text or json")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *addr != "" {
		cfg.Address = *addr
	}
	if *certFile != "" {
		cfg.TLS.CertFile = *certFile
	}
	if *keyFile != "" {
		cfg.TLS.KeyFile = *keyFile
	}
	if *useTLS {
		cfg.TLS.Enabled = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	logger.Init(logger.Level(cfg.Logging.Level), cfg.Logging.Format)
	log := logger.Get()

	log.Info("gateway starting", "version", serverVersion, "config", cfg.String())

	srv, err := NewServer(cfg)
	if err != nil {
		log.ErrorWithErr("failed to create gateway", err)
		os.Exit(1)
	}

	if err := instanceMgr.WritePID(); err != nil {
		log.Warn("failed to write PID file", "error", err)
	}
	defer instanceMgr.RemovePID()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	errorChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errorChan <- err
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.ErrorWithErr("error during shutdown", err)
		}
		log.Info("gateway stopped")

	case err := <-errorChan:
		log.ErrorWithErr("gateway failed", err)
		os.Exit(1)
	}
}

func registerFlags(fs *flag.FlagSet) {
	fs.String("addr", "", "Listen address (overrides config)")
	fs.String("config", "", "Config file path (optional)")
	fs.String("cert", "", "TLS certificate file")
	fs.String("key", "", "TLS key file")
	fs.Bool("tls", false, "Enable TLS")
	fs.String("log-level", "", "Log level: debug, info, warn, error")
	fs.String("log-format", "", "Log format: text or json")
}

func printHelp(fs *flag.FlagSet) {
	fmt.Print(`sechubd - security device hub gateway

Commands:
  start              Start the gateway (default if no command given)
  stop               Stop the running gateway
  restart            Restart the gateway
  status             Show gateway status

Flags:
`)
	fs.PrintDefaults()
	fmt.Print(`
Examples:
  sechubd                              # Start on the configured address
  sechubd -addr 127.0.0.1:3000         # Start on a custom address
  sechubd -config gateway.yaml         # Start with a config file
  sechubd status                       # Check if the gateway is running
`)
}
