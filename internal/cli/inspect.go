package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modforge/internal/app"
)

type inspectOptions struct {
	Mod         string
	Loader      string
	GameVersion string
	Index       string
	APIURL      string
	TimeoutSec  int
	Retries     int
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List candidate versions for one mod in resolver order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Mod, "mod", "", "Mod slug")
	cmd.Flags().StringVar(&opts.Loader, "loader", "", "Loader")
	cmd.Flags().StringVar(&opts.GameVersion, "game-version", "", "Game version")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Local metadata catalog path")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "Metadata API base URL")
	cmd.Flags().IntVar(&opts.TimeoutSec, "timeout-sec", 0, "Metadata request timeout in seconds")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "Metadata request retries")
	_ = viper.BindPFlag("mod", cmd.Flags().Lookup("mod"))
	_ = viper.BindPFlag("loader", cmd.Flags().Lookup("loader"))
	_ = viper.BindPFlag("game_version", cmd.Flags().Lookup("game-version"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("api_url", cmd.Flags().Lookup("api-url"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(ctx, app.InspectRequest{
		ModID:       resolveString(cmd, opts.Mod, "mod", "mod"),
		Loader:      resolveString(cmd, opts.Loader, "loader", "loader"),
		GameVersion: resolveString(cmd, opts.GameVersion, "game_version", "game-version"),
		IndexPath:   resolveString(cmd, opts.Index, "index", "index"),
		APIURL:      resolveString(cmd, opts.APIURL, "api_url", "api-url"),
		TimeoutSec:  opts.TimeoutSec,
		Retries:     opts.Retries,
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d candidates\n", result.ModID, len(result.Candidates))
	for _, candidate := range result.Candidates {
		fmt.Printf("  %s  %s  %s  %s\n", candidate.Version, candidate.Channel, candidate.PublishedAt, candidate.VersionID)
	}
	return nil
}
