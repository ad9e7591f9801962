package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/lhre/nightcan/pkg/catalog"
)

// Config represents the application configuration shared by the
// catalog generator, the header generator and the flasher.
type Config struct {
	Input    InputConfig    `mapstructure:"input"`
	Layout   LayoutConfig   `mapstructure:"layout"`
	Bitfield BitfieldConfig `mapstructure:"bitfield"`
	Output   OutputConfig   `mapstructure:"output"`
	Flash    FlashConfig    `mapstructure:"flash"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// InputConfig holds the source table locations.
type InputConfig struct {
	CSV       string `mapstructure:"csv"`       // Main packet table
	Bitfields string `mapstructure:"bitfields"` // Secondary bitfield table (optional)
}

// LayoutConfig names the packet table columns. DataColumns is the
// number of positional data cells per row; classic CAN frames use 8.
type LayoutConfig struct {
	IDColumn        string `mapstructure:"id_column"`
	NameColumn      string `mapstructure:"name_column"`
	FromColumn      string `mapstructure:"from_column"`
	ToColumn        string `mapstructure:"to_column"`
	DLCColumn       string `mapstructure:"dlc_column"`
	FrequencyColumn string `mapstructure:"frequency_column"`
	QuantityColumn  string `mapstructure:"quantity_column"`
	DataPrefix      string `mapstructure:"data_prefix"`
	DataColumns     int    `mapstructure:"data_columns"`
}

// BitfieldConfig names the secondary table columns.
type BitfieldConfig struct {
	NameColumn string `mapstructure:"name_column"`
	BitPrefix  string `mapstructure:"bit_prefix"`
}

// OutputConfig holds the generated artifact locations.
type OutputConfig struct {
	JSON   string `mapstructure:"json"`
	Header string `mapstructure:"header"`
}

// FlashConfig holds the firmware flashing defaults.
type FlashConfig struct {
	DescKeyword  string `mapstructure:"desc_keyword"`  // Serial port description substring
	HWID         string `mapstructure:"hwid"`          // Serial mode VID:PID substring
	DFUDevice    string `mapstructure:"dfu_device"`    // DFU bootloader VID:PID
	BaudRate     int    `mapstructure:"baud_rate"`     // Monitor baud rate
	DfuseAddress string `mapstructure:"dfuse_address"` // Flash base address
	Retries      int    `mapstructure:"retries"`       // Post-flash re-enumeration attempts
	RetryDelay   int    `mapstructure:"retry_delay"`   // Seconds between attempts
	BuildDir     string `mapstructure:"build_dir"`     // cmake build directory (build-target mode)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("nightcan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
	}

	viper.SetEnvPrefix("NIGHTCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK, use defaults
		} else if os.IsNotExist(err) {
			// File explicitly specified but doesn't exist - that's also OK
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Input defaults
	viper.SetDefault("input.csv", "CAN.csv")
	viper.SetDefault("input.bitfields", "")

	// Layout defaults, matching the spreadsheet as exported
	viper.SetDefault("layout.id_column", "CAN ID")
	viper.SetDefault("layout.name_column", "Packet Info")
	viper.SetDefault("layout.from_column", "From")
	viper.SetDefault("layout.to_column", "To")
	viper.SetDefault("layout.dlc_column", "Data Length Code (DLC)")
	viper.SetDefault("layout.frequency_column", "Frequency (Hz)")
	viper.SetDefault("layout.quantity_column", "Quantity")
	viper.SetDefault("layout.data_prefix", "Data[")
	viper.SetDefault("layout.data_columns", 8)

	// Bitfield table defaults
	viper.SetDefault("bitfield.name_column", "Bitfield")
	viper.SetDefault("bitfield.bit_prefix", "b[")

	// Output defaults
	viper.SetDefault("output.json", "can_packets.json")
	viper.SetDefault("output.header", "night_can_ids.h")

	// Flash defaults (STM32 DFU bootloader)
	viper.SetDefault("flash.desc_keyword", "lhre")
	viper.SetDefault("flash.hwid", "0483:5740")
	viper.SetDefault("flash.dfu_device", "0483:df11")
	viper.SetDefault("flash.baud_rate", 115200)
	viper.SetDefault("flash.dfuse_address", "0x08000000")
	viper.SetDefault("flash.retries", 5)
	viper.SetDefault("flash.retry_delay", 2)
	viper.SetDefault("flash.build_dir", "cmake-build-debug")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// Columns converts the layout section to the catalog column layout.
func (c *Config) Columns() catalog.Columns {
	return catalog.Columns{
		ID:          c.Layout.IDColumn,
		Name:        c.Layout.NameColumn,
		From:        c.Layout.FromColumn,
		To:          c.Layout.ToColumn,
		DLC:         c.Layout.DLCColumn,
		Frequency:   c.Layout.FrequencyColumn,
		Quantity:    c.Layout.QuantityColumn,
		DataPrefix:  c.Layout.DataPrefix,
		DataColumns: c.Layout.DataColumns,
	}
}

// BitfieldColumns converts the bitfield section to the catalog
// secondary-table layout.
func (c *Config) BitfieldColumns() catalog.BitfieldTableColumns {
	return catalog.BitfieldTableColumns{
		Name:      c.Bitfield.NameColumn,
		BitPrefix: c.Bitfield.BitPrefix,
	}
}
