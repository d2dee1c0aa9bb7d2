package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"winnow/internal/settings"
)

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Manage excluded topics",
	}

	topicsCmd.AddCommand(newTopicsListCommand(ctx))
	topicsCmd.AddCommand(newTopicsAddCommand(ctx))
	topicsCmd.AddCommand(newTopicsRemoveCommand(ctx))
	topicsCmd.AddCommand(newTopicsEditCommand(ctx))

	return topicsCmd
}

func newTopicsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List excluded topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *settings.Store) error {
				topics, err := store.Topics(cmd.Context())
				if err != nil {
					return fmt.Errorf("list topics: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(topics) == 0 {
					fmt.Fprintln(out, "No excluded topics")
					return nil
				}
				rows := make([]table.Row, len(topics))
				for i, topic := range topics {
					rows[i] = table.Row{i + 1, topic}
				}
				fmt.Fprintln(out, renderTable(table.Row{"#", "Topic"}, rows, 1))
				return nil
			})
		},
	}
}

func newTopicsAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic>",
		Short: "Add an excluded topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *settings.Store) error {
				if err := store.AddTopic(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added topic %q\n", args[0])
				return nil
			})
		},
	}
}

func newTopicsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <topic>",
		Short: "Remove an excluded topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *settings.Store) error {
				if err := store.RemoveTopic(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed topic %q\n", args[0])
				return nil
			})
		},
	}
}

func newTopicsEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <old> <new>",
		Short: "Replace an excluded topic in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *settings.Store) error {
				if err := store.EditTopic(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaced topic %q with %q\n", args[0], args[1])
				return nil
			})
		},
	}
}
