package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"simreg/internal/form"
)

var districtsCmd = &cobra.Command{
	Use:   "districts",
	Short: "List the district names accepted by the registration form",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, d := range form.Districts {
			fmt.Println(d)
		}
	},
}

func init() {
	rootCmd.AddCommand(districtsCmd)
}
