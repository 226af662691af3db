package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/godaq/pkg/config"
	"github.com/itohio/godaq/pkg/daq"
	"github.com/itohio/godaq/pkg/logfile"
	"github.com/itohio/godaq/pkg/monitor"
	"github.com/itohio/godaq/pkg/publish"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of real hardware")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override device selection if provided via command line
	if *portFlag != "" {
		cfg.Device.Port = *portFlag
	}
	if *mockFlag {
		cfg.Device.Type = "mock"
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("An error occurred during data acquisition: %v", err)
	}
}

// run owns the device, outputs and acquisition loop so that every
// resource is released before main decides the exit code.
func run(cfg *config.Config) error {
	log.Printf("Connecting to %s device", cfg.Device.Type)
	reader, err := daq.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("Error closing DAQ device: %v", err)
		}
	}()

	channels := cfg.ChannelList()
	labels := make([]string, len(channels))
	for i, ch := range channels {
		labels[i] = ch.Label
	}
	writer := logfile.New(cfg.Acquisition.OutputDir, cfg.Acquisition.ProjectName, labels)

	outputs, err := buildOutputs(cfg)
	if err != nil {
		return err
	}
	defer func() {
		for _, out := range outputs {
			if err := out.Close(); err != nil {
				log.Printf("Error closing output: %v", err)
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	return monitor.New(cfg, reader, writer, outputs...).Run(ctx)
}

// buildOutputs assembles the secondary row sinks from the config.
func buildOutputs(cfg *config.Config) ([]publish.Output, error) {
	var outputs []publish.Output

	if cfg.Outputs.Console {
		outputs = append(outputs, publish.NewConsole())
	}

	if cfg.Outputs.MQTT.Enabled {
		mq, err := publish.NewMQTT(cfg.Outputs.MQTT)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, mq)
	}

	return outputs, nil
}
