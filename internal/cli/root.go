package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/waygraph/waygraph/pkg/config"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. Called by
// the main package with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the waygraph CLI and returns an error if any command fails.
//
// The root command wires up all subcommands, configures logging based on the
// --verbose flag, and loads settings from the --config flag (or the default
// location). Logger and settings travel on the command context.
func Execute(ctx context.Context) error {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:          "waygraph",
		Short:        "waygraph persists and converts street-network graphs",
		Long:         `waygraph is a CLI tool for persisting attributed street-network graphs: lossless GraphML round-trips with typed attribute coercion, and lossy conversion to and from the OSM XML interchange format.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))

			path := configPath
			explicit := path != ""
			if !explicit {
				path = config.DefaultPath()
			}
			settings, err := config.Load(path, explicit)
			if err != nil {
				return err
			}
			cmd.SetContext(withSettings(cctx, settings))
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("waygraph %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML settings file")

	root.AddCommand(newGraphMLCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}

// withSettings returns a new context with the loaded settings attached.
func withSettings(ctx context.Context, s config.Settings) context.Context {
	return context.WithValue(ctx, settingsKey, s)
}

// settingsFromContext retrieves the settings from ctx, falling back to the
// built-in defaults.
func settingsFromContext(ctx context.Context) config.Settings {
	if s, ok := ctx.Value(settingsKey).(config.Settings); ok {
		return s
	}
	return config.Default()
}
