package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lhre/nightcan/internal/cli"
	"github.com/lhre/nightcan/pkg/catalog"
	"github.com/lhre/nightcan/pkg/config"
	"github.com/lhre/nightcan/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to configuration file")
	input := flag.String("input", "", "Packet table CSV (overrides config)")
	bitfields := flag.String("bitfields", "", "Bitfield table CSV (overrides config)")
	output := flag.String("output", "", "Output JSON path (overrides config)")
	showVersion := flag.Bool("version", false, "Show version information")
	validate := flag.Bool("validate", false, "Validate configuration and exit")
	quiet := flag.Bool("q", false, "Only log errors")
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("canjson %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *quiet {
		level = "error"
	}
	log := logger.New(logger.Config{Level: level})

	// Validate only mode
	if *validate {
		log.Info("Configuration is valid")
		os.Exit(0)
	}

	csvPath := cfg.Input.CSV
	if *input != "" {
		csvPath = *input
	}
	bitfieldPath := cfg.Input.Bitfields
	if *bitfields != "" {
		bitfieldPath = *bitfields
	}
	jsonPath := cfg.Output.JSON
	if *output != "" {
		jsonPath = *output
	}

	// Load the bitfield dictionary first so signal cells can resolve
	// their encodings.
	var dict catalog.Dictionary
	if bitfieldPath != "" {
		var diags []catalog.Diagnostic
		dict, diags, err = catalog.LoadBitfieldFile(bitfieldPath, cfg.BitfieldColumns())
		if err != nil {
			log.Error("failed to load bitfield table", logger.Error(err))
			os.Exit(1)
		}
		cli.ReportDiagnostics(log, diags)
		log.Info("bitfield dictionary loaded",
			logger.String("file", bitfieldPath),
			logger.Int("bitfields", len(dict)))
	}

	cat, diags, err := catalog.GenerateFile(csvPath, cfg.Columns(), dict)
	if err != nil {
		log.Error("failed to generate catalog", logger.Error(err))
		os.Exit(1)
	}
	cli.ReportDiagnostics(log, diags)

	if err := cat.WriteJSONFile(jsonPath); err != nil {
		log.Error("failed to write catalog", logger.Error(err))
		os.Exit(1)
	}

	log.Info("catalog written",
		logger.String("input", csvPath),
		logger.String("output", jsonPath),
		logger.Int("packets", len(cat)))
}
