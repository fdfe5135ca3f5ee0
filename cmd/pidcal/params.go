package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlyingRobots-Pequi/pidcal/internal/link"
	"github.com/FlyingRobots-Pequi/pidcal/internal/logging"
	"github.com/FlyingRobots-Pequi/pidcal/internal/poll"
)

var (
	paramsURI     string
	paramsTimeout time.Duration
	paramsJSON    bool
)

var paramsCmd = &cobra.Command{
	Use:   "params",
	Short: "Connect, print the parameter table and exit",
	RunE:  runParams,
}

func init() {
	paramsCmd.Flags().StringVar(&paramsURI, "uri", "", "MAVLink connection string (default from config)")
	paramsCmd.Flags().DurationVar(&paramsTimeout, "timeout", 10*time.Second, "give up waiting for a heartbeat after this long")
	paramsCmd.Flags().BoolVar(&paramsJSON, "json", false, "print JSON instead of a table")
}

func runParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, logCloser, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := link.Dial(cfg.ConnectionURI, cfg.SystemID)
	if err != nil {
		return err
	}
	defer l.Close()
	logger.Info("waiting for heartbeat", "endpoint", l.Endpoint(), "timeout", paramsTimeout)

	hsCtx, cancel := context.WithTimeout(ctx, paramsTimeout)
	defer cancel()
	target, err := l.WaitHeartbeat(hsCtx)
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	logger.Info("heartbeat received", "system", target.System, "component", target.Component)

	entries, err := l.RequestParams(ctx, target, cfg.ParamRequestTimeout)
	if err != nil {
		return fmt.Errorf("parameter request: %w", err)
	}

	table := poll.NewParamTable()
	for _, e := range entries {
		table.Put(e)
	}

	out := cmd.OutOrStdout()
	if paramsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(table.Entries())
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tVALUE")
	for _, e := range table.Entries() {
		fmt.Fprintf(tw, "%s\t%g\n", e.ID, e.Value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d of %d parameters\n", table.Len(), reportedTotal(table.Entries()))
	return nil
}

// reportedTotal is the count the vehicle announced, which may exceed what arrived.
func reportedTotal(entries []link.ParamEntry) int {
	total := 0
	for _, e := range entries {
		if e.TotalCount > total {
			total = e.TotalCount
		}
	}
	return total
}
