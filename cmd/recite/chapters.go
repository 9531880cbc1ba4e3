package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/murattal/recite/internal/domain"
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "List the chapters of the Quran",
	Run: func(cmd *cobra.Command, args []string) {
		for _, ch := range domain.AllChapters() {
			fmt.Printf("%4d  %-16s %-16s %4d verses\n", ch.Number, ch.Name, ch.ArabicName, ch.Verses)
		}
	},
}
