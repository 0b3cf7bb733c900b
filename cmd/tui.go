package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"haven/internal/client"
	"haven/internal/tui"
	"haven/socket"

	"github.com/spf13/cobra"
)

var (
	tuiServer string
	tuiToken  string
	tuiLive   bool
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tuiToken == "" {
			tuiToken = os.Getenv("HAVEN_TOKEN")
		}
		if tuiToken == "" {
			return errors.New("a token is required (--token or HAVEN_TOKEN)")
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		api := client.New(tuiServer, tuiToken)
		user, err := api.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("cannot reach %s: %w", tuiServer, err)
		}

		var feed <-chan socket.Event
		if tuiLive {
			events, err := api.Subscribe(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "live updates unavailable: %v\n", err)
			} else {
				feed = events
			}
		}
		return tui.Run(ctx, api, user, feed)
	},
}

func init() {
	tuiCmd.Flags().StringVar(&tuiServer, "server", "http://localhost:8080", "API base URL")
	tuiCmd.Flags().StringVar(&tuiToken, "token", "", "bearer token (default $HAVEN_TOKEN)")
	tuiCmd.Flags().BoolVar(&tuiLive, "live", true, "follow changes made in other windows")
}
