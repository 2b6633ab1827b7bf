package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarjim/tarjim/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration or write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		initFile, _ := cmd.Flags().GetString("init")
		if initFile != "" {
			if err := config.GenerateDefaultConfigFile(initFile); err != nil {
				return err
			}
			fmt.Printf("Wrote default configuration to %s\n", initFile)
			return nil
		}

		loader := GetConfigLoader()
		if used := loader.GetConfigFileUsed(); used != "" {
			fmt.Printf("Configuration file: %s\n", used)
		} else {
			fmt.Println("Configuration file: (defaults and environment only)")
		}
		for key, value := range loader.GetViper().AllSettings() {
			fmt.Printf("%s: %v\n", key, value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().String("init", "", "write a default configuration file to this path")
}
