package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/robot-zoo/robotzoo/internal/mcp"
)

const defaultAPIURL = "http://127.0.0.1:9877"

func apiURL() string {
	if url := os.Getenv("ROBOTZOO_API_URL"); url != "" {
		return url
	}
	return defaultAPIURL
}

// newStatusCmd prints what a running bot reports through its admin API
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client := mcp.NewClient(apiURL())
			out := cmd.OutOrStdout()

			bot, err := client.Health(ctx)
			if err != nil {
				return fmt.Errorf("bot not reachable at %s: %w", apiURL(), err)
			}
			fmt.Fprintf(out, "bot: %s\n", bot)

			switch bot {
			case botGrotebroer:
				terms, err := client.Terms(ctx)
				if err != nil {
					return err
				}
				chance, err := client.Chance(ctx)
				if err != nil {
					return err
				}
				pattern, _ := client.Pattern(ctx)
				fmt.Fprintf(out, "terms: %v\nchance: %d%%\npattern: %s\n", terms, chance, pattern)
			case botCasio:
				alarms, err := client.Alarms(ctx)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(alarms))
				for k := range alarms {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "alarm %s: %d request(s)\n", k, len(alarms[k]))
				}
			}
			return nil
		},
	}
}

// newMCPCmd serves the admin API as MCP tools over stdio
func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the admin API as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout belongs to the protocol
			fmt.Fprintf(os.Stderr, "[robotzoo-mcp] admin API: %s\n", apiURL())
			return mcp.NewServer(mcp.NewClient(apiURL()), version).Run(cmd.Context())
		},
	}
}
