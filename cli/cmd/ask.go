package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

var askCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Send one message to an agent and print the reply",
	Example: `  vocal ask "read my recent emails"
  vocal ask --agent mailbox "create a workout playlist with 15 songs"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}

		agent, _ := cmd.Flags().GetString("agent")
		if agent == "" {
			agent = profile.DefaultAgent
		}
		model, _ := cmd.Flags().GetString("model")
		if model != "" {
			if err := asi.ValidateModel(model); err != nil {
				return err
			}
		}

		client, err := busclientConnect(profile)
		if err != nil {
			return fmt.Errorf("connect to bus at %s: %w", profile.NATSURL, err)
		}
		defer client.Close()

		msg := chatproto.NewChatMessage("", strings.Join(args, " "))
		msg.Model = model

		exchange, err := chatExchange(cmd.Context(), client, agent, msg, chatTimeout)
		if err != nil {
			return err
		}
		if !exchange.Response.Success {
			return fmt.Errorf("agent error: %s", exchange.Response.Error)
		}

		fmt.Fprintln(cmd.OutOrStdout(), exchange.Response.Text)
		return nil
	},
}

func init() {
	askCmd.Flags().String("agent", "", "agent to ask (default: profile's default agent)")
	askCmd.Flags().String("model", "", "completion model to request (validated before sending)")
	rootCmd.AddCommand(askCmd)
}
