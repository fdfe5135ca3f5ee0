package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlyingRobots-Pequi/pidcal/internal/config"
	"github.com/FlyingRobots-Pequi/pidcal/internal/logging"
	"github.com/FlyingRobots-Pequi/pidcal/internal/sim"
)

var (
	simURI      string
	simSystemID int
	simRate     time.Duration
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run a simulated flight controller for bench testing",
	Long: `sim emulates a multirotor flight controller: it sends heartbeats, answers
parameter requests with its loop gains and streams attitude and position
setpoints and estimates while following a scripted pattern.

Run "pidcal sim" and "pidcal --auto-connect" side by side to try the charts
without hardware.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logCfg := config.Baseline().Log
		logger, logCloser, err := logging.New(logCfg, os.Stderr)
		if err != nil {
			return err
		}
		defer logCloser.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return sim.Run(ctx, sim.Options{
			URI:      simURI,
			SystemID: simSystemID,
			Rate:     simRate,
			Logger:   logger.WithPrefix("sim"),
		})
	},
}

func init() {
	simCmd.Flags().StringVar(&simURI, "uri", sim.DefaultURI, "MAVLink connection string")
	simCmd.Flags().IntVar(&simSystemID, "system-id", sim.DefaultSystemID, "MAVLink system id of the vehicle")
	simCmd.Flags().DurationVar(&simRate, "rate", sim.DefaultRate, "simulation and telemetry step")
}
