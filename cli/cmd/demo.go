package cmd

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Send generated voice commands to the mailbox agent",
	Long: `Generate sample voice commands and send them to the mailbox agent
over the bus, printing each reply. Useful for smoke-testing a freshly
started stack.`,
	Example: `  vocal demo
  vocal demo --count 10 --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}

		count, _ := cmd.Flags().GetInt("count")
		if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
			gofakeit.Seed(seed)
		}

		client, err := busclientConnect(profile)
		if err != nil {
			return fmt.Errorf("connect to bus at %s: %w", profile.NATSURL, err)
		}
		defer client.Close()

		for i := 0; i < count; i++ {
			command := demoCommand()
			fmt.Fprintf(cmd.OutOrStdout(), "> %s\n", command)

			exchange, err := chatExchange(cmd.Context(), client, profile.DefaultAgent, chatproto.NewChatMessage("", command), chatTimeout)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  error: %v\n", err)
				continue
			}
			if !exchange.Response.Success {
				fmt.Fprintf(cmd.OutOrStdout(), "  agent error: %s\n", exchange.Response.Error)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", exchange.Response.Text)
		}
		return nil
	},
}

// demoCommand generates one plausible voice command.
func demoCommand() string {
	switch gofakeit.Number(0, 6) {
	case 0:
		return fmt.Sprintf("send an email to %s about %s saying %q",
			gofakeit.Email(), gofakeit.BuzzWord(), gofakeit.Sentence(8))
	case 1:
		return fmt.Sprintf("create a %s playlist with %d songs",
			gofakeit.RandomString([]string{"chill", "workout", "rock", "pop"}), gofakeit.Number(5, 20))
	case 2:
		return fmt.Sprintf("send a slack message to #%s saying %q",
			gofakeit.Word(), gofakeit.Sentence(6))
	case 3:
		return fmt.Sprintf("schedule a meeting tomorrow at %dpm with %s about %s",
			gofakeit.Number(1, 8), gofakeit.Email(), gofakeit.BuzzWord())
	case 4:
		return fmt.Sprintf("send %s a discord dm saying %q",
			gofakeit.Username(), gofakeit.Sentence(5))
	case 5:
		return fmt.Sprintf("take a note titled %s saying %q",
			gofakeit.BuzzWord(), gofakeit.Sentence(7))
	default:
		return fmt.Sprintf("what is the weather like in %s?", gofakeit.City())
	}
}

func init() {
	demoCmd.Flags().Int("count", 5, "number of commands to send")
	demoCmd.Flags().Int64("seed", 0, "random seed (0 keeps it random)")
	rootCmd.AddCommand(demoCmd)
}
