package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var recitersCmd = &cobra.Command{
	Use:   "reciters",
	Short: "List the available reciters",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := engine.controller
		c.LoadReciters(context.Background())

		snap := c.Snapshot()
		if snap.ErrorMessage != "" {
			return errors.New(snap.ErrorMessage)
		}

		for _, r := range snap.Reciters {
			marker := "  "
			if snap.SelectedReciter != nil && snap.SelectedReciter.ID == r.ID {
				marker = "* "
			}
			fmt.Printf("%s%4d  %-40s %s\n", marker, r.ID, r.Name, r.ArabicName)
		}
		return nil
	},
}
