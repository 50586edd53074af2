package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
	"github.com/vocal-agents/vocal-stack/common/messaging"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List known agents and their bus addresses",
	Long: `List the agent addresses recorded in the profile.

With --watch, listen for startup announcements on the bus and record
each agent's address in the profile as it comes up.`,
	Example: `  vocal agents
  vocal agents --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profileName, _ := cmd.Flags().GetString("profile")
		profile, err := profileFromFlags(cmd)
		if err != nil {
			return err
		}

		watch, _ := cmd.Flags().GetBool("watch")
		if !watch {
			if len(profile.Agents) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No agents recorded yet. Run \"vocal agents --watch\" while the stack starts.")
				return nil
			}
			for name, address := range profile.Agents {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", name, address)
			}
			return nil
		}

		client, err := busclientConnect(profile)
		if err != nil {
			return fmt.Errorf("connect to bus at %s: %w", profile.NATSURL, err)
		}
		defer client.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Listening for agent announcements (ctrl-c to stop)...")

		sub, err := client.Subscribe(messaging.SubjectAnnounce, func(ctx context.Context, m *messaging.Message) error {
			var ann chatproto.Announcement
			if err := json.Unmarshal(m.Data, &ann); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s  [%s]\n", ann.Name, ann.Address, strings.Join(ann.Capabilities, ", "))
			if err := cliCfg.SaveAgentAddress(profileName, ann.Name, ann.Address); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not save address: %v\n", err)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("subscribe to announcements: %w", err)
		}
		defer sub.Unsubscribe()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		// Give an in-flight save a moment to finish.
		time.Sleep(100 * time.Millisecond)
		return nil
	},
}

func init() {
	agentsCmd.Flags().Bool("watch", false, "listen for announcements and record addresses")
	rootCmd.AddCommand(agentsCmd)
}
