package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcoot/bouncetimer/internal/model"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "players",
		Aliases: []string{"player"},
		Short:   "Player management commands",
	}

	cmd.AddCommand(newPlayersListCmd())
	cmd.AddCommand(newPlayersGetCmd())
	cmd.AddCommand(newPlayersAddCmd())
	cmd.AddCommand(newPlayersDeleteCmd())
	cmd.AddCommand(newPlayersClearExpiredCmd())

	return cmd
}

func newPlayersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List players, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			players, err := client.FetchPlayers(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(PlayerList(players))
			return nil
		},
	}
}

func newPlayersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := client.FetchPlayer(cmd.Context(), model.PlayerID(args[0]))
			if err != nil {
				return err
			}
			out.Print(p)
			return nil
		},
	}
}

func newPlayersAddCmd() *cobra.Command {
	var name string
	var minutes int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a player and start their countdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			p, err := client.CreatePlayer(cmd.Context(), name, minutes)
			if err != nil {
				return err
			}
			out.Print(p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().IntVar(&minutes, "minutes", model.DefaultAverageDuration, "Slot length in minutes")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a player",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.DeletePlayer(cmd.Context(), model.PlayerID(args[0])); err != nil {
				return err
			}
			out.PrintMessage("Player deleted")
			return nil
		},
	}
}

func newPlayersClearExpiredCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-expired",
		Short: "Remove every expired player",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.ClearExpiredPlayers(cmd.Context()); err != nil {
				return err
			}
			out.PrintMessage("Expired players cleared")
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show player counts and the average slot length",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out.Print(stats)
			return nil
		},
	}
}
