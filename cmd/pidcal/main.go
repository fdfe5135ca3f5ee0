// Package main implements the pidcal command: a live setpoint versus actual chart
// surface for tuning the cascaded PID loops of a MAVLink flight controller.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pidcal",
	Short: "Live PID calibration charts for MAVLink flight controllers",
	Long: `pidcal connects to a flight controller over MAVLink, reads its parameter table
and charts setpoint against actual for the rate, attitude, velocity and position
controllers in a browser.

Connection strings:
  udp:HOST:PORT, udpin:HOST:PORT   listen for datagrams
  udpout:HOST:PORT                 send datagrams to HOST
  udpbcast:HOST:PORT               broadcast
  tcp:HOST:PORT, tcpin:HOST:PORT   TCP client / server
  serial:DEVICE[:BAUD]             serial port`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $PIDCAL_CONFIG)")
	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd, paramsCmd, portsCmd, simCmd, tokenCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
