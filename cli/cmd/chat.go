package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/asi"
	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// chatTimeout bounds one request/reply round trip.
const chatTimeout = 60 * time.Second

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with an agent",
	Long: `Start an interactive chat session with an agent over the bus.

The conversation ID is kept for the whole session so the agent can use
rolling context. Type "exit" or "quit" to end the session.`,
	Example: `  vocal chat
  vocal chat --agent mailbox --model asi1-fast-agentic`,
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

		conversationID := uuid.NewString()
		fmt.Printf("Chatting with the %s agent (conversation %s). Type \"exit\" to quit.\n", agent, conversationID[:8])

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				break
			}
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			msg := chatproto.NewChatMessage(conversationID, text)
			msg.Model = model
			if text == "exit" || text == "quit" {
				msg.EndSession = true
				msg.Text = ""
			}

			exchange, err := chatExchange(cmd.Context(), client, agent, msg, chatTimeout)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				if msg.EndSession {
					return nil
				}
				continue
			}

			if !exchange.Response.Success {
				fmt.Fprintf(os.Stderr, "agent error: %s\n", exchange.Response.Error)
			} else {
				fmt.Println(exchange.Response.Text)
			}

			if msg.EndSession {
				return nil
			}
		}
		return scanner.Err()
	},
}

func init() {
	chatCmd.Flags().String("agent", "", "agent to chat with (default: profile's default agent)")
	chatCmd.Flags().String("model", "", "completion model to request (validated before sending)")
	rootCmd.AddCommand(chatCmd)
}
