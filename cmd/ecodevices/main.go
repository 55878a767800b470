package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ecodevices",
	Short: "GCE Eco-Devices CLI",
	Long:  `A command line interface for reading GCE Eco-Devices energy monitors.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
