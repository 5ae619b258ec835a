package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jd3nn1s/clusterbridge"
	"github.com/jd3nn1s/clusterbridge/dmecan"
	"github.com/jd3nn1s/clusterbridge/forwarder"
	"github.com/jd3nn1s/clusterbridge/kbus"
	"github.com/jd3nn1s/clusterbridge/pins"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile     string
	testMode       bool
	printTelemetry bool
	verbose        bool
)

var rootCmd = &cobra.Command{
	Use:   "clusterbridge",
	Short: "Drive an instrument cluster from racing simulation telemetry",
	Long: `clusterbridge reads the semicolon separated telemetry stream sent by the
simulation host and replays it to an instrument cluster as engine controller
CAN frames, light control K-bus telegrams, a speedometer tone and a few
discrete warning outputs.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "clusterbridge.toml", "Configuration file (.toml or .yaml)")
	rootCmd.Flags().BoolVar(&testMode, "testmode", false, "generate test data instead of reading the host port")
	rootCmd.Flags().BoolVar(&printTelemetry, "print-telemetry", false, "print telemetry to stdout")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every frame")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openOutputs(cfg clusterbridge.OutputsConfig) (clusterbridge.Outputs, error) {
	if cfg.Driver == clusterbridge.OutputsPeriph {
		return pins.OpenPeriph(cfg.Periph())
	}
	return pins.NewLogger(), nil
}

func run(cmd *cobra.Command, args []string) error {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := clusterbridge.LoadConfig(configFile)
	if err != nil {
		return errors.Wrap(err, "unable to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("shutting down")
		cancel()
	}()

	canBus, err := dmecan.Connect(cfg.CAN.Interface)
	if err != nil {
		return err
	}
	defer canBus.Close()

	kBus, err := kbus.Connect(cfg.KBus.Port)
	if err != nil {
		return err
	}
	defer kBus.Close()

	outputs, err := openOutputs(cfg.Outputs)
	if err != nil {
		return errors.Wrap(err, "unable to open outputs")
	}
	defer outputs.Close()

	bridge := clusterbridge.NewBridge(cfg.Host, canBus, kBus, outputs)
	bridge.Clock = cfg.ClockFunc()
	bridge.PrintTelemetry = printTelemetry
	bridge.SetTestMode(testMode)

	if cfg.Tap.Server != "" {
		fwder, err := forwarder.NewUDPForwarder(cfg.Tap)
		if err != nil {
			return errors.Wrap(err, "unable to start UDP tap")
		}
		defer fwder.Close()
		go fwder.Start(ctx)
		bridge.Tap = fwder
	}

	bridge.Start(ctx)
	if err := bridge.Run(ctx, cfg.Interval()); err != context.Canceled {
		return err
	}
	return nil
}
