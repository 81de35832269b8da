package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/service"
	"github.com/spf13/cobra"
)

func newWatchCmd(e *env) *cobra.Command {
	var maxWait time.Duration
	cmd := &cobra.Command{
		Use:   "watch <recipe>",
		Short: "Print step changes of a recipe as they happen",
		Long: `Follow a recipe's event feed on the server and print every step that is
created, deleted or moved. Stop with Ctrl+C.

When the server goes away, watch reconnects with growing delays and gives up
after --max-wait without a successful reconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.watcher == nil {
				return errors.New("watch needs a running server")
			}
			printf(cmd, "%s\n", e.theme.hintStyle().Render("Watching "+args[0]+", press Ctrl+C to stop"))
			opts := client.FollowOptions{
				MaxElapsed: maxWait,
				OnReconnect: func(err error, wait time.Duration) {
					printf(cmd, "%s\n", e.theme.warnStyle().Render(
						fmt.Sprintf("Connection lost (%v), retrying in %s", err, wait.Round(time.Millisecond))))
				},
			}
			err := e.watcher.Follow(cmd.Context(), args[0], opts, func(evt service.Event) error {
				printf(cmd, "%s  %s\n", evt.Time.Local().Format("15:04:05"), describeEvent(evt))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&maxWait, "max-wait", 5*time.Minute, "give up reconnecting after this long (0 retries forever)")
	return cmd
}

func describeEvent(evt service.Event) string {
	switch evt.Type {
	case service.EventStepCreated:
		return fmt.Sprintf("Step %d created", evt.StepNum)
	case service.EventStepDeleted:
		return fmt.Sprintf("Step %d deleted", evt.StepNum)
	case service.EventStepMoved:
		return fmt.Sprintf("Step moved %s, now Step %d", evt.Direction, evt.StepNum)
	default:
		return evt.Type
	}
}
