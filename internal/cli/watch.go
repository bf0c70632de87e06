package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/remote"
	"github.com/mcoot/bouncetimer/internal/timer"
)

const clearScreen = "\033[H\033[2J"

func newWatchCmd() *cobra.Command {
	var once bool
	var poll time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show live countdowns for every player",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st := remote.NewStore(client, clock.New(), poll, cliLogger())
			if err := st.Refresh(ctx); err != nil {
				return err
			}
			if once {
				out.Print(PlayerList(sorted(st.List())))
				return nil
			}
			return watch(ctx, st, clock.New())
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Print a single frame and exit")
	cmd.Flags().DurationVar(&poll, "poll", remote.DefaultPollInterval, "How often to re-read the player list")

	return cmd
}

// watch redraws the board every tick until ctx is done
func watch(ctx context.Context, st *remote.Store, clk clock.Clock) error {
	changed := make(chan struct{}, 1)
	unsubscribe := st.Subscribe(func(model.ChangeEvent) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	ticker := clk.NewTicker(timer.TickInterval)
	defer ticker.Stop()

	for {
		drawFrame(st.List(), clk.Now())

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		case <-changed:
		}
	}
}

func drawFrame(players []model.Player, now time.Time) {
	if cfg.Output == "json" {
		out.Print(PlayerList(sorted(players)))
		return
	}
	_, _ = fmt.Fprint(out.w, clearScreen)
	_, _ = fmt.Fprintf(out.w, "Bounce timer  %s\n\n", now.Format("15:04:05"))
	out.Print(PlayerList(sorted(players)))
}

func sorted(players []model.Player) []model.Player {
	model.SortNewestFirst(players)
	return players
}
