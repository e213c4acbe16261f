// Package manage handles the account, person, category and goal commands
package manage

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moneyflow/ledger-engine/cmd/root"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/query"
)

var (
	goalName    string
	goalTarget  string
	goalAccount string
)

// AccountCmd manages accounts
var AccountCmd = nameCommands("account", "accounts",
	func() []string { return root.Processor().Snapshot().AccountNames() },
	func(ctx context.Context, n string) error { return root.Processor().AddAccount(ctx, n) },
	func(ctx context.Context, n string) error { return root.Processor().RemoveAccount(ctx, n) },
)

// PersonCmd manages people
var PersonCmd = nameCommands("person", "people",
	func() []string { return root.Processor().Snapshot().People },
	func(ctx context.Context, n string) error { return root.Processor().AddPerson(ctx, n) },
	func(ctx context.Context, n string) error { return root.Processor().RemovePerson(ctx, n) },
)

// CategoryCmd manages expense categories
var CategoryCmd = nameCommands("category", "expense categories",
	func() []string { return root.Processor().Snapshot().Categories },
	func(ctx context.Context, n string) error { return root.Processor().AddCategory(ctx, n) },
	func(ctx context.Context, n string) error { return root.Processor().RemoveCategory(ctx, n) },
)

// GoalCmd shows or changes the savings goal
var GoalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Show or change the savings goal",
	Long:  `Show the savings goal. Any of --name, --target and --account changes it.`,
	Args:  cobra.NoArgs,
	RunE:  goalFunc,
}

func init() {
	GoalCmd.Flags().StringVar(&goalName, "name", "", "Goal name")
	GoalCmd.Flags().StringVarP(&goalTarget, "target", "t", "", "Target amount")
	GoalCmd.Flags().StringVar(&goalAccount, "account", "", "Account the savings are kept in")
}

func nameCommands(use, plural string, list func() []string, add, remove func(context.Context, string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("List, add and remove %s", plural),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, n := range list() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Add a " + use,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := add(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", use, args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a " + use,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s %s\n", use, args[0])
				return nil
			},
		},
	)
	return cmd
}

func goalFunc(cmd *cobra.Command, args []string) error {
	p := root.Processor()
	goal := p.Snapshot().Goal
	if cmd.Flags().Changed("name") || cmd.Flags().Changed("target") || cmd.Flags().Changed("account") {
		patch := ledger.GoalPatch{Name: goalName, LinkedAccount: goalAccount}
		if cmd.Flags().Changed("target") {
			t, err := ledger.ParseAmount(goalTarget)
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			patch.Target = &t
		}
		var err error
		if goal, err = p.SetGoal(cmd.Context(), patch); err != nil {
			return err
		}
	}
	if goal.Name == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No goal set.")
		return nil
	}
	st, m := query.GoalProgress(p.Snapshot()), root.Money()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s of %s saved in %s (%d%%)\n",
		st.Name, m.Format(st.Saved), m.Format(st.Target), st.LinkedAccount, st.Percent)
	return nil
}
