//----------------------------------------------------------------------
// This file is part of msgpad.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// msgpad is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// msgpad is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

// Msgpad-sim runs the message pad application against simulated hardware.
//
// Touch input comes from a YAML script, the display is rendered into PNG
// snapshots (one per screen change), credentials are kept in a host
// directory and the network is a table of known SSIDs. The message box
// namespace can be served via 9p on TCP.
//
// Usage:
//
//	msgpad-sim run [flags] <script.yaml>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bfix/msgpad"
	"github.com/bfix/msgpad/sim"
)

// Version is set at build time
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "msgpad-sim",
	Short: "Message pad simulator",
	Long: `Run the message pad firmware logic on the host.

The simulator replaces the touch screen with a scripted sequence of taps,
the display with an image canvas and the Wi-Fi radio with a table of known
networks. Settings are read from a YAML file and can be overridden with
MSGPAD_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run command and flags
var (
	configPath string
	logLevel   string
	snapDir    string
	storeDir   string
	serve      bool
)

var runCmd = &cobra.Command{
	Use:   "run <script.yaml>",
	Short: "Play a touch script",
	Example: `  # Enter credentials and connect
  msgpad-sim run --config sim.yaml scripts/setup.yaml

  # Keep credentials between runs and serve the namespace on port 5640
  MSGPAD_PORT=5640 msgpad-sim run --store ./flash --serve scripts/setup.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("msgpad-sim %s\n", Version)
	},
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "msgpad.yaml", "Configuration file (ignored if missing)")
	runCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&snapDir, "snapshots", "", "Directory for PNG snapshots (overrides config)")
	runCmd.Flags().StringVar(&storeDir, "store", "", "Directory holding the device files (overrides config)")
	runCmd.Flags().BoolVar(&serve, "serve", false, "Serve the namespace via 9p after the script")
}

// newLogger returns a slog logger writing through charmbracelet/log.
func newLogger(level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "msgpad",
		Level:           lvl,
		ReportTimestamp: true,
	})
	return slog.New(handler), nil
}

func runScript(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	cfg, err := sim.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("snapshots") {
		cfg.Snapshots = snapDir
	}
	if cmd.Flags().Changed("store") {
		cfg.StorageDir = storeDir
	}
	if cmd.Flags().Changed("serve") {
		cfg.Serve = serve
	}
	if len(cfg.Snapshots) > 0 {
		if err = os.MkdirAll(cfg.Snapshots, 0o755); err != nil {
			return fmt.Errorf("snapshot directory: %w", err)
		}
	}
	script, err := sim.LoadScript(args[0])
	if err != nil {
		return err
	}

	dev := msgpad.InitDevice(logger)
	status := msgpad.NewStatus(dev)
	rig, err := sim.NewRig(cfg, status, logger)
	if err != nil {
		return err
	}
	logger.Info("playing script", slog.String("name", script.Name), slog.Int("steps", len(script.Steps)))
	if err = rig.Play(script); err != nil {
		return err
	}
	if err = rig.Snapshot("final"); err != nil {
		return err
	}
	snap := rig.App.Snapshot()
	logger.Info("script done",
		slog.String("screen", snap.Screen.String()),
		slog.String("ssid", snap.SSID),
		slog.String("status", snap.Status),
		slog.Int("frames", rig.Frames()),
	)
	if code, _ := status.Get(); code != msgpad.StatOK {
		logger.Warn("device status", slog.String("status", msgpad.StatusText(code)))
	}
	if !cfg.Serve {
		return nil
	}
	return serveNamespace(cmd.Context(), dev, rig, cfg.Port, logger)
}

// serveNamespace serves the message box via 9p until interrupted.
func serveNamespace(ctx context.Context, dev *msgpad.LinuxDevice, rig *sim.Rig, port uint16, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	lst, state := dev.SetupListener(ctx, port)
	if state != msgpad.StatOK {
		return fmt.Errorf("listen on port %d: %s", port, msgpad.StatusText(state))
	}
	go func() {
		<-ctx.Done()
		lst.Close()
	}()
	logger.Info("serving namespace", slog.String("addr", lst.Addr().String()))
	for {
		c, err := lst.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			logger.Warn("accept failed", slog.String("err", err.Error()))
			continue
		}
		remote := c.RemoteAddr().String()
		logger.Info("client connected", slog.String("remote", remote))
		go func() {
			defer c.Close()
			rig.Namespace.ServeConn(c)
			logger.Info("client disconnected", slog.String("remote", remote))
		}()
	}
}
