// Package main provides the Flowork terminal console.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	cli "github.com/urfave/cli/v3"

	"github.com/floworkhq/flowork/internal/tui"
	"github.com/floworkhq/flowork/pkg/client"
)

const healthPingTimeout = 5 * time.Second

func main() {
	command := &cli.Command{
		Name:                  "flowork",
		Usage:                 "Terminal console for Flowork workflows",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the Flowork API server",
				Sources: cli.EnvVars("FLOWORK_API_URL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			apiURL := command.String("api-url")
			if apiURL == "" {
				apiURL = loadConsoleConfig().APIURL
			}

			apiClient := client.New(apiURL)

			// Fail before entering the alternate screen when the server is
			// unreachable, so the message stays visible.
			pingCtx, cancel := context.WithTimeout(ctx, healthPingTimeout)
			defer cancel()

			if err := apiClient.Health(pingCtx); err != nil {
				return fmt.Errorf("cannot reach Flowork API at %s: %w", apiClient.BaseURL(), err)
			}

			return tui.Run(apiClient)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "flowork:", err)
		os.Exit(1)
	}
}
