package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lhre/nightcan/internal/cli"
	"github.com/lhre/nightcan/pkg/catalog"
	"github.com/lhre/nightcan/pkg/config"
	"github.com/lhre/nightcan/pkg/header"
	"github.com/lhre/nightcan/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to configuration file")
	input := flag.String("input", "", "Catalog JSON path (overrides config)")
	output := flag.String("output", "", "Output header path (overrides config)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("canheader %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level})

	jsonPath := cfg.Output.JSON
	if *input != "" {
		jsonPath = *input
	}
	headerPath := cfg.Output.Header
	if *output != "" {
		headerPath = *output
	}

	cat, err := catalog.LoadFile(jsonPath)
	if err != nil {
		log.Error("failed to load catalog", logger.Error(err))
		os.Exit(1)
	}

	text, diags := header.Generate(cat, jsonPath, headerPath)
	cli.ReportDiagnostics(log, diags)

	if err := os.WriteFile(headerPath, []byte(text), 0o644); err != nil {
		log.Error("failed to write header", logger.Error(err))
		os.Exit(1)
	}

	log.Info("header written",
		logger.String("input", jsonPath),
		logger.String("output", headerPath),
		logger.Int("packets", len(cat)))
}
