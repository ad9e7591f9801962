package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lhre/nightcan/pkg/config"
	"github.com/lhre/nightcan/pkg/flash"
	"github.com/lhre/nightcan/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Parse command line flags
	configFile := flag.String("config", "", "Path to configuration file")
	firmware := flag.String("firmware", "", "Firmware .bin image (default: newest in build dir)")
	target := flag.String("target", "", "cmake target to build before flashing")
	buildDir := flag.String("build-dir", "", "Build directory to search for firmware (overrides config)")
	monitorOnly := flag.Bool("monitor", false, "Skip flashing, only monitor the serial port")
	noMonitor := flag.Bool("no-monitor", false, "Exit after flashing instead of monitoring")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	// Show version
	if *showVersion {
		fmt.Printf("canflash %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level})

	flasher := flash.New(flash.Config{
		DescKeyword:  cfg.Flash.DescKeyword,
		HWID:         cfg.Flash.HWID,
		DFUDevice:    cfg.Flash.DFUDevice,
		BaudRate:     cfg.Flash.BaudRate,
		DfuseAddress: cfg.Flash.DfuseAddress,
		Retries:      cfg.Flash.Retries,
		RetryDelay:   time.Duration(cfg.Flash.RetryDelay) * time.Second,
	}, log.WithComponent("flash"), flash.WithEcho(os.Stdout))

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println(flash.Detail("interrupted, shutting down"))
		cancel()
	}()

	if !*monitorOnly {
		dir := cfg.Flash.BuildDir
		if *buildDir != "" {
			dir = *buildDir
		}

		if *target != "" {
			fmt.Println(flash.Step("building target " + *target))
			if err := flasher.Build(ctx, dir, *target); err != nil {
				fmt.Println(flash.Fail(err.Error()))
				os.Exit(1)
			}
		}

		image := *firmware
		if image == "" {
			image, err = flash.FindFirmware(dir)
			if err != nil {
				fmt.Println(flash.Fail(err.Error()))
				os.Exit(1)
			}
		}

		fmt.Println(flash.Step("flashing " + image))
		if err := flasher.Flash(ctx, image); err != nil {
			fmt.Println(flash.Fail(err.Error()))
			os.Exit(1)
		}
		fmt.Println(flash.Success("firmware flashed"))

		if *noMonitor {
			return
		}
	}

	fmt.Println(flash.Step("waiting for serial port"))
	monitor, err := flasher.OpenMonitor(ctx, os.Stdout)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Println(flash.Fail(err.Error()))
		os.Exit(1)
	}

	fmt.Println(flash.Detail("press Ctrl-C or Ctrl-D to stop"))
	if err := monitor.RunWithInput(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println(flash.Fail(err.Error()))
		os.Exit(1)
	}
}
