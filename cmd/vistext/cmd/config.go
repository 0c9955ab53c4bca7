package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/vistext/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const masked = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a YAML file",
	Long: `Write the default configuration to a YAML file.

Examples:
  vistext config init
  vistext config init --file ~/.config/vistext/vistext.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		force, _ := cmd.Flags().GetBool("force")
		if file == "" {
			file = config.ConfigFileName + ".yaml"
		}
		if err := config.WriteDefaultFile(file, force); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", file)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the config file, VISTEXT_*
environment variables and flags. Passwords and API keys are masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := configLoader.LoadWithoutValidation(cfgFile)
		if err != nil {
			return err
		}
		maskSecrets(cfg)
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which config file is used and where files are searched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		used := configLoader.ConfigFileUsed()
		if used == "" {
			used = "(none, using defaults)"
		}
		_, _ = fmt.Fprintf(out, "Config file: %s\nSearch paths:\n", used)
		for _, p := range config.SearchPaths() {
			_, _ = fmt.Fprintf(out, "  %s\n", p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configPathCmd)

	configInitCmd.Flags().String("file", "", "output file (default vistext.yaml)")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func maskSecrets(cfg *config.Config) {
	for _, s := range []*string{&cfg.Partition.APIKey, &cfg.Extract.UserPassword, &cfg.Extract.OwnerPassword} {
		if *s != "" {
			*s = masked
		}
	}
}
