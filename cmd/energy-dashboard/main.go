package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"energy-dashboard/internal/config"
	"energy-dashboard/internal/monitor"
	"energy-dashboard/internal/server"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional, .json or .yaml)")
	configTemplate := flag.Bool("config-template", false, "Print a commented config template and exit")
	check := flag.Bool("check", false, "Probe the InfluxDB health endpoint once and exit")
	flag.Parse()

	if *configTemplate {
		fmt.Print(config.Template())
		return
	}

	var cfg *config.Config
	var err error

	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		fmt.Printf("Loaded config from %s\n", *configPath)
	} else {
		cfg, _, err = config.LoadAuto()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		fmt.Printf("Config search paths: %s\n", strings.Join(config.SearchPaths, ", "))
	}

	if *check {
		if err := runCheck(cfg); err != nil {
			log.Fatalf("Check failed: %v", err)
		}
		return
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func runCheck(cfg *config.Config) error {
	fmt.Println("Energy Dashboard Health Check")
	fmt.Println("=============================")

	mon := monitor.New(cfg)
	fmt.Printf("Probing %s (timeout %v)... ", mon.Target(), mon.Timeout())

	if err := mon.Probe(context.Background()); err != nil {
		fmt.Println("FAILED")
		fmt.Printf("  %v\n", err)
		fmt.Println("  Logins are still accepted; the probe is advisory.")
		return err
	}
	fmt.Println("OK")
	return nil
}
