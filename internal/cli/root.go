// Package cli builds the moviefinder command tree.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abelbrown/moviefinder/internal/config"
	"github.com/abelbrown/moviefinder/internal/install"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/ui"
)

// options is shared by every command.
type options struct {
	configFile string
	logLevel   string

	v   *viper.Viper
	cfg *config.Config
}

// load reads configuration and starts the file logger.
func (o *options) load(cmd *cobra.Command) error {
	o.v = config.New(o.configFile)
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		if err := o.v.BindPFlag("log.level", f); err != nil {
			return err
		}
	}

	cfg, err := config.Load(o.v)
	if err != nil {
		return err
	}
	o.cfg = cfg

	if err := logging.Init(cfg.Log.Path, cfg.Log.Level); err != nil {
		return err
	}
	logging.Logger.Debug("config loaded", "file", o.v.ConfigFileUsed(), "backend", cfg.Store.Backend)
	return nil
}

// NewRootCommand returns the moviefinder command with all subcommands.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "moviefinder",
		Short: "Find movies you'll enjoy without the hassle",
		Long: `MovieFinder browses The Movie Database from the terminal.

Type to search, press tab to move between the search box, the results and
the trending rail, s to change the sort order and m to load more.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), o)
		},
	}

	root.PersistentFlags().StringVar(&o.configFile, "config", "", "config file (default ~/.moviefinder/moviefinder.toml)")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	addSearch(root, o)
	addTrending(root, o)
	addCache(root, o)
	addConfig(root, o)
	addInstall(root, o)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context) error {
	return executeRoot(ctx, NewRootCommand())
}

// executeRoot closes the log file however the command ends.
func executeRoot(ctx context.Context, root *cobra.Command) error {
	defer logging.Close()
	return root.ExecuteContext(ctx)
}

func runTUI(ctx context.Context, o *options) error {
	if err := o.cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := setup(ctx, o.cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cache != nil {
		go rt.precache(ctx, false)
	}

	var installer install.Prompter = install.Noop{}
	if l := install.NewLauncher(); l != nil {
		installer = l
	}

	deps := ui.Deps{
		Context:       ctx,
		Catalog:       rt.catalog,
		Installer:     installer,
		Debounce:      o.cfg.UI.Debounce,
		TrendingLimit: o.cfg.UI.TrendingLimit,
		Sort:          rt.sort,
		Logger:        logging.WithPrefix("ui"),
	}
	if rt.tracker != nil {
		deps.Tracker = rt.tracker
	}
	app := ui.NewApp(deps)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
