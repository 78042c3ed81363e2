package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"errtracer/config"
	"errtracer/logging"
	"errtracer/output"
	"errtracer/session"
	"errtracer/tracer"
)

var runCmd = &cobra.Command{
	Use:   "run CONFIGFILE",
	Short: "Run a full analysis session against a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

var (
	runShimPath   string
	runSocketPath string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runShimPath, "shim", os.Getenv("ERRTRACER_SHIM"), "path to the built interception shim (.so)")
	runCmd.Flags().StringVar(&runSocketPath, "socket", tracer.DefaultSocketPath, "welcome socket path")
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if runShimPath == "" {
		return fmt.Errorf("no shim library configured: pass --shim or set ERRTRACER_SHIM")
	}

	log := logging.Default()
	sess, err := session.New(cfg, log)
	if err != nil {
		return fmt.Errorf("build session: %w", err)
	}

	graph, err := sess.Run(GetContext(), runShimPath, runSocketPath)
	if err != nil {
		return fmt.Errorf("run session: %w", err)
	}

	out := os.Stdout
	if cfg.Destination != "" {
		f, err := os.Create(cfg.Destination)
		if err != nil {
			return fmt.Errorf("create destination file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch cfg.Output {
	case "json":
		return output.WriteJSON(out, graph)
	case "dot", "":
		return output.WriteDot(out, graph)
	default:
		return fmt.Errorf("unknown output format %q", cfg.Output)
	}
}
