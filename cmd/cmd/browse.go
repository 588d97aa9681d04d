package cmd

import (
	"github.com/spf13/cobra"

	"kgpack/internal/config"
	"kgpack/internal/tui"
)

// NewBrowseCmd creates the interactive pack browser command.
func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Launch the interactive pack browser",
		RunE: func(c *cobra.Command, args []string) error {
			tui.StartTUI(config.Get())
			return nil
		},
	}
}
