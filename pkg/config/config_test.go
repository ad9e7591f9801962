package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_UsesDefaults_WhenNoFile(t *testing.T) {
	// Reset viper to avoid cross-test pollution
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Spot-check a few defaults
	if cfg.Layout.IDColumn != "CAN ID" {
		t.Errorf("expected layout.id_column default %q, got %q", "CAN ID", cfg.Layout.IDColumn)
	}
	if cfg.Layout.DataColumns != 8 {
		t.Errorf("expected layout.data_columns default 8, got %d", cfg.Layout.DataColumns)
	}
	if cfg.Bitfield.NameColumn != "Bitfield" {
		t.Errorf("expected bitfield.name_column default Bitfield, got %q", cfg.Bitfield.NameColumn)
	}
	if cfg.Output.JSON != "can_packets.json" {
		t.Errorf("expected output.json default can_packets.json, got %q", cfg.Output.JSON)
	}
	if cfg.Flash.BaudRate != 115200 {
		t.Errorf("expected flash.baud_rate default 115200, got %d", cfg.Flash.BaudRate)
	}
	if cfg.Flash.DFUDevice != "0483:df11" {
		t.Errorf("expected flash.dfu_device default 0483:df11, got %q", cfg.Flash.DFUDevice)
	}
	if cfg.Logging.Level == "" {
		t.Errorf("expected logging.level to be set (default info)")
	}
}

func TestColumns_Conversion(t *testing.T) {
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cols := cfg.Columns()
	if cols.ID != "CAN ID" || cols.DataColumns != 8 || cols.DataPrefix != "Data[" {
		t.Errorf("unexpected column conversion: %+v", cols)
	}

	bcols := cfg.BitfieldColumns()
	if bcols.Name != "Bitfield" || bcols.BitPrefix != "b[" {
		t.Errorf("unexpected bitfield column conversion: %+v", bcols)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			Layout: LayoutConfig{
				IDColumn:    "CAN ID",
				DataPrefix:  "Data[",
				DataColumns: 8,
			},
			Bitfield: BitfieldConfig{NameColumn: "Bitfield"},
			Output:   OutputConfig{JSON: "out.json", Header: "out.h"},
			Flash:    FlashConfig{BaudRate: 115200, DfuseAddress: "0x08000000"},
			Logging:  LoggingConfig{Level: "info"},
		}
	}

	t.Run("valid base", func(t *testing.T) {
		if err := validate(base()); err != nil {
			t.Fatalf("expected base config to validate, got %v", err)
		}
	})

	t.Run("missing id column", func(t *testing.T) {
		cfg := base()
		cfg.Layout.IDColumn = ""
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for empty layout.id_column")
		}
	})

	t.Run("non-positive data columns", func(t *testing.T) {
		cfg := base()
		cfg.Layout.DataColumns = 0
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for zero layout.data_columns")
		}
	})

	t.Run("bad dfuse address", func(t *testing.T) {
		cfg := base()
		cfg.Flash.DfuseAddress = "8000000"
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for non-hex flash.dfuse_address")
		}
	})

	t.Run("bad logging level", func(t *testing.T) {
		cfg := base()
		cfg.Logging.Level = "loud"
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for unknown logging.level")
		}
	})
}
