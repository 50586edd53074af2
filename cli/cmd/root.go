package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/common/config"
)

var (
	cfgFile string
	cliCfg  *config.CLIConfig
)

var rootCmd = &cobra.Command{
	Use:   "vocal",
	Short: "Vocal Agent CLI",
	Long: `vocal is the command-line interface for the Vocal Agent stack.

Chat with the mailbox assistant, discover running agents on the bus,
run the one-time OAuth setup flows for Spotify, Slack, Google and
Discord, and
send demo traffic.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.vocal/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().String("nats", "", "override the NATS server URL")
}

func initConfig() {
	var err error
	cliCfg, err = config.LoadCLI(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cliCfg = config.DefaultCLI()
	}
}

// profileFromFlags resolves the active profile, applying the --nats override.
func profileFromFlags(cmd *cobra.Command) (*config.CLIProfile, error) {
	name, _ := cmd.Flags().GetString("profile")
	profile, err := cliCfg.GetProfile(name)
	if err != nil {
		return nil, err
	}
	if url, _ := cmd.Flags().GetString("nats"); url != "" {
		profile.NATSURL = url
	}
	return profile, nil
}
