package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

type rootFlags struct {
	envFile string
	verbose bool
	dryRun  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "robotzoo",
		Short:         "A small zoo of social bots on Feishu",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.envFile != "" {
				// An explicit file must exist
				return godotenv.Load(flags.envFile)
			}
			// .env is optional
			_ = godotenv.Load()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "load environment from this file instead of .env")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "log platform writes instead of sending them")

	root.AddCommand(
		newBotCmd(flags, botCasio, "Alarm clock: beeps hourly and replies to alarm requests"),
		newBotCmd(flags, botGrotebroer, "Keyword watcher: reposts matching posts and follows their authors"),
		newBotCmd(flags, botMsvlieland, "Ferry horn: sounds at scheduled departures"),
		newBotCmd(flags, botConvertbot, "Posts the time in a random base, now and then"),
		newPostCmd(flags),
		newStatusCmd(),
		newMCPCmd(),
	)
	return root
}

func newBotCmd(flags *rootFlags, bot, short string) *cobra.Command {
	return &cobra.Command{
		Use:   bot,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunBot(cmd.Context(), bot)
		},
	}
}

func newPostCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "post <text>",
		Short: "Post one status to the timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.Post(cmd.Context(), args[0])
		},
	}
}
