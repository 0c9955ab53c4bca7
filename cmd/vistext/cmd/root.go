// Package cmd implements the vistext command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/vistext/internal/config"
	"github.com/MeKo-Tech/vistext/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Configuration file path.
	cfgFile string
	// Flag to config key bindings, replayed onto each fresh viper instance.
	flagBindings []flagBinding
)

type flagBinding struct {
	key  string
	flag *pflag.Flag
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "vistext",
	Short: "Extract question topics and their pictures from scanned exam books",
	Long: `vistext turns scanned exam-preparation PDFs into structured question topics
with their associated images.

It rasterizes pages, finds non-text picture regions, scores them, classifies
question text (multiple choice, select-all-that-apply, fill in the blank,
matrix), links images to topics by page proximity and writes a validation
report next to images.json and topics.json.

Examples:
  vistext extract book.pdf --pages 88-92 --output out
  vistext detect page.png --overlay page_overlay.png
  vistext classify question.txt
  vistext analyze out/images
  vistext serve --port 8080`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		v := configLoader.Viper()
		setupLogging(cmd.ErrOrStderr(), v.GetBool("verbose"), v.GetString("log_level"))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is vistext.yaml in ., $HOME, $XDG_CONFIG_HOME/vistext, /etc/vistext)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	bindFlag(rootCmd.PersistentFlags(), "verbose", "verbose")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "log_level")
}

// bindFlag binds a flag to a config key so flags override file and env values.
func bindFlag(flags *pflag.FlagSet, name, key string) {
	f := flags.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("bind flag %s: no such flag", name))
	}
	flagBindings = append(flagBindings, flagBinding{key: key, flag: f})
}

// initConfig reads in config file and ENV variables on a fresh viper
// instance, so repeated executions do not share a cached config file.
func initConfig() error {
	v := viper.New()
	for _, b := range flagBindings {
		if err := v.BindPFlag(b.key, b.flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", b.flag.Name, err)
		}
	}
	configLoader = config.NewLoaderWith(v)
	if _, err := configLoader.LoadWithoutValidation(cfgFile); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	return nil
}

// setupLogging installs the JSON slog handler on w.
func setupLogging(w io.Writer, verbose bool, level string) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		switch level {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})))
}

// GetConfig returns the merged configuration (flags, env, file, defaults),
// validated.
func GetConfig() (*config.Config, error) {
	if configLoader == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}
	var cfg config.Config
	if err := configLoader.Viper().Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}
