package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/common/config"
	"github.com/vocal-agents/vocal-stack/common/oauthflow"
)

// setupTimeout bounds how long we wait for the user to finish the
// browser handshake.
const setupTimeout = 2 * time.Minute

var setupCmd = &cobra.Command{
	Use:   "setup <spotify|slack|google|discord>",
	Short: "Run the one-time OAuth setup for a vendor",
	Long: `Run the interactive OAuth authorization flow for a vendor API.

Prints the authorization URL to open in a browser, runs a local callback
listener on the configured redirect URI, exchanges the returned code and
persists the token cache for the agents to use.

Client credentials come from the service configuration (environment
variables like SPOTIFY_CLIENT_ID or the config file).`,
	Example: `  vocal setup spotify
  vocal setup slack
  vocal setup google
  vocal setup discord`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"spotify", "slack", "google", "discord"},
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := oauthflow.Provider(args[0])

		svcCfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		var oauthCfg config.OAuthConfig
		switch provider {
		case oauthflow.ProviderSpotify:
			oauthCfg = svcCfg.Spotify
		case oauthflow.ProviderSlack:
			oauthCfg = svcCfg.Slack
		case oauthflow.ProviderGoogle:
			oauthCfg = svcCfg.Google
		case oauthflow.ProviderDiscord:
			oauthCfg = svcCfg.Discord.OAuthConfig
		default:
			return fmt.Errorf("unknown provider %q (expected spotify, slack, google or discord)", args[0])
		}

		flow, err := oauthflow.NewFlow(provider, oauthCfg)
		if err != nil {
			return err
		}

		state, err := oauthflow.SignState(flow.StateSecret(), provider)
		if err != nil {
			return fmt.Errorf("sign state parameter: %w", err)
		}

		callback, err := oauthflow.NewCallbackServer(flow.RedirectURI())
		if err != nil {
			return fmt.Errorf("start callback listener: %w", err)
		}
		if err := callback.Start(); err != nil {
			return fmt.Errorf("start callback listener: %w", err)
		}
		defer callback.Shutdown()

		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL in your browser to authorize %s:\n\n  %s\n\n", provider, flow.AuthURL(state))
		fmt.Fprintf(cmd.OutOrStdout(), "Waiting for the callback on %s ...\n", flow.RedirectURI())

		ctx, cancel := context.WithTimeout(cmd.Context(), setupTimeout)
		defer cancel()

		result, err := callback.WaitForCode(ctx)
		if err != nil {
			return fmt.Errorf("waiting for authorization: %w", err)
		}
		if err := oauthflow.VerifyState(flow.StateSecret(), provider, result.State); err != nil {
			return fmt.Errorf("state verification failed: %w", err)
		}

		if _, err := flow.Exchange(ctx, result.Code); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s authorization complete. Token cache written to %s\n", provider, oauthCfg.CachePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
