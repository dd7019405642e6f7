package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/scaffold/services/platform/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "platform-service",
	Short: "Scaffolding platform service using event sourcing",
	Long:  `A service for managing scaffolded projects, templates, repository provisioning and code analysis using event sourcing and CQRS`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

func initConfig() {
	var err error

	if cfgFile != "" {
		config.SetConfigFile(cfgFile)
	}

	cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
}
