// Package commands is the staycal command line.
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"staycal/internal/config"
	"staycal/internal/feed"
	appLog "staycal/internal/log"
	"staycal/internal/web"
)

const defaultConfigPath = "~/.config/staycal/config.yaml"

// RootOptions are the flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
}

func New() *cobra.Command {
	o := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "staycal",
		Short: "Booking calendar for short-term rental listings.",
		Long: `staycal merges the ICS booking feeds of your listings into one
horizontally scrolling timeline, served as a web page or drawn in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&o.ConfigPath, "config", defaultConfigPath,
		"Path to the YAML config file. Created with defaults if missing.")
	cmd.PersistentFlags().StringVar(&o.EnvFile, "env", ".env",
		"Optional .env file with STAYCAL_* overrides.")

	AddCommands(cmd, o)
	return cmd
}

func AddCommands(topLevel *cobra.Command, o *RootOptions) {
	addServe(topLevel, o)
	addTUI(topLevel, o)
	addRender(topLevel, o)
	addList(topLevel, o)
	addSnapshot(topLevel, o)
	addVersion(topLevel)
}

// env is what every subcommand starts from: validated config, display zone
// and the feed pipeline.
type env struct {
	cfg       *config.Config
	loc       *time.Location
	store     *feed.Store
	refresher *feed.Refresher
}

func (o *RootOptions) load() (*env, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", o.ConfigPath, err)
	}
	if err := cfg.LoadEnv(o.EnvFile); err != nil {
		return nil, fmt.Errorf("load env %s: %w", o.EnvFile, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))

	cacheDir, err := config.ExpandPath(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	loc := web.ResolveLocation(cfg.Timezone)
	store := feed.NewStore(feed.Listings(cfg.Listings))

	appLog.Debug("effective config",
		"listen", cfg.Listen,
		"timezone", loc.String(),
		"refresh", cfg.RefreshCron,
		"cache_dir", cacheDir,
		"horizon_days", cfg.HorizonDays,
		"listings", len(cfg.Listings),
	)

	return &env{
		cfg:       cfg,
		loc:       loc,
		store:     store,
		refresher: feed.NewRefresher(cfg, feed.NewFetcher(cacheDir), store, loc),
	}, nil
}

func (e *env) today() time.Time {
	return time.Now().In(e.loc)
}
