package config

import (
	"fmt"
	"strings"
)

// validate validates the configuration
func validate(cfg *Config) error {
	// Validate layout
	if cfg.Layout.IDColumn == "" {
		return fmt.Errorf("layout.id_column must not be empty")
	}
	if cfg.Layout.DataPrefix == "" {
		return fmt.Errorf("layout.data_prefix must not be empty")
	}
	if cfg.Layout.DataColumns <= 0 {
		return fmt.Errorf("layout.data_columns must be positive")
	}

	// Validate bitfield table layout
	if cfg.Bitfield.NameColumn == "" {
		return fmt.Errorf("bitfield.name_column must not be empty")
	}

	// Validate output
	if cfg.Output.JSON == "" {
		return fmt.Errorf("output.json must not be empty")
	}
	if cfg.Output.Header == "" {
		return fmt.Errorf("output.header must not be empty")
	}

	// Validate flash settings
	if cfg.Flash.BaudRate <= 0 {
		return fmt.Errorf("flash.baud_rate must be positive")
	}
	if cfg.Flash.Retries < 0 {
		return fmt.Errorf("flash.retries must not be negative")
	}
	if cfg.Flash.DfuseAddress != "" && !strings.HasPrefix(cfg.Flash.DfuseAddress, "0x") {
		return fmt.Errorf("flash.dfuse_address must be a hex address like 0x08000000")
	}

	// Validate logging level
	level := strings.ToLower(cfg.Logging.Level)
	switch level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	return nil
}
