package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ImanSamantaCoder/Video-calling-APP/internal/ui"
	"github.com/ImanSamantaCoder/Video-calling-APP/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "videocall",
	Short:   "Two-party peer-to-peer video calls over WebRTC",
	Long:    `videocall joins a named room on a signaling server and sets up a direct WebRTC audio/video session with the one other participant in that room. Media flows peer to peer; the server only relays offers, answers and ICE candidates.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err))
		stop()
		os.Exit(1)
	}
}
