package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codeology-limited/hypercube/internal/statussock"
)

var statusServeCmd = &cobra.Command{
	Use:   "status-serve <container.vhc> <socket-path>",
	Short: "Serve read-only header/block-count queries over a Unix socket",
	Args:  cobra.ExactArgs(2),
	RunE:  runStatusServe,
}

func init() {
	rootCmd.AddCommand(statusServeCmd)
}

func runStatusServe(cmd *cobra.Command, args []string) error {
	containerPath, sockPath := args[0], args[1]

	listener, err := statussock.Listen(sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		listener.Close()
		os.Remove(sockPath)
		os.Exit(0)
	}()

	fmt.Fprintf(os.Stderr, "Serving status for %s on %s\n", containerPath, sockPath)
	statussock.Serve(listener, containerPath)
	return nil
}
