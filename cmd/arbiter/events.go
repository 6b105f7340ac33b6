package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/pkg/validation"
)

var eventsCmd = &cobra.Command{
	Use:   "events [name]",
	Short: "List the alert table, or the contexts of one event",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tbl, err := loadTable(cfg)
		if err != nil {
			return err
		}

		ids := tbl.Registry().IDs()
		if len(args) == 1 {
			if err := validation.ValidateEventName(args[0]); err != nil {
				return err
			}
			id, ok := tbl.Registry().Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", alerts.ErrUnknownEvent, args[0])
			}
			ids = []alerts.EventName{id}
		}

		return printTable(cmd.OutOrStdout(), tbl, ids)
	},
}

func printTable(w io.Writer, tbl *alerts.Table, ids []alerts.EventName) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "EVENT", "CONTEXT", "PRIORITY", "TEXT", "DELAY")

	for _, id := range ids {
		name, err := tbl.Registry().Name(id)
		if err != nil {
			return err
		}
		for _, et := range tbl.Types(id) {
			entry, _ := tbl.Lookup(id, et)
			t.Row(append([]string{fmt.Sprint(int(id)), name, et.String()}, describeEntry(entry)...)...)
		}
	}

	_, err := fmt.Fprintln(w, t.String())
	return err
}

func describeEntry(entry alerts.Entry) []string {
	a, ok := entry.StaticAlert()
	if !ok {
		return []string{"-", "(computed)", "-"}
	}

	text := strings.TrimSpace(a.Text1 + " / " + a.Text2)
	switch {
	case a.Text1 == "" && a.Text2 == "":
		text = "(silent)"
	case a.Text2 == "":
		text = a.Text1
	case a.Text1 == "":
		text = a.Text2
	}

	delay := "-"
	if a.CreationDelay > 0 {
		delay = a.CreationDelay.String()
	}
	return []string{a.Priority.String(), text, delay}
}
