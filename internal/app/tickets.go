package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ticktools/tick/internal/output"
	"github.com/ticktools/tick/internal/store"
)

var (
	addPriority int

	addCmd = &cobra.Command{
		Use:   "add <title>",
		Short: "Add a ticket",
		Args:  cobra.ExactArgs(1),
		RunE:  runAdd,
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List tickets",
		RunE:  runList,
	}
)

func init() {
	addCmd.Flags().IntVarP(&addPriority, "priority", "p", 2, "priority, 0 (urgent) to 4 (backlog)")
	RootCmd.AddCommand(addCmd)
	RootCmd.AddCommand(listCmd)
}

func openStore(env *env) (*store.Store, error) {
	s, err := store.New(env.dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.CreateSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	s, err := openStore(env)
	if err != nil {
		return err
	}
	defer s.Close()

	now := time.Now()
	id, err := s.InsertTicket(&store.Ticket{
		Title:     args[0],
		Status:    "open",
		Priority:  addPriority,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("failed to add ticket: %w", err)
	}
	fmt.Printf("✓ Added ticket #%d: %s\n", id, args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := newEnv()
	if err != nil {
		return err
	}
	s, err := openStore(env)
	if err != nil {
		return err
	}
	defer s.Close()

	tickets, err := s.ListTickets()
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Println("No tickets yet. Add one with 'tick add <title>'.")
		return nil
	}
	for _, t := range tickets {
		fmt.Printf("#%-4d P%d %-10s %s  %s\n",
			t.ID, t.Priority, t.Status, t.Title,
			output.FormatRelativeTime(t.CreatedAt))
	}
	return nil
}
