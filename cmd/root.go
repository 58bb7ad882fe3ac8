package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	Version = "0.4.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════════╗",
		"║   ____             ____  _                       ║",
		"║  |  _ \\  ___   ___/ ___|| |_ ___  _ __ _ __ ___  ║",
		"║  | | | |/ _ \\ / __\\___ \\| __/ _ \\| '__| '_ ` _ \\ ║",
		"║  | |_| | (_) | (__ ___) | || (_) | |  | | | | | |║",
		"║  |____/ \\___/ \\___|____/ \\__\\___/|_|  |_| |_| |_|║",
		"║                                                  ║",
		"║        ⚡ Schema-driven document load tester ⚡   ║",
		"╚══════════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("                 ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "docstorm",
	Short: "Generate schema-driven documents and drive weighted load against a database",
	Long: `
DocStorm generates synthetic documents from a field schema and runs a weighted
mix of inserts, bulk inserts, key lookups and group-count aggregations against
a document or SQL store.

Database Support:
- MongoDB (aggregations on a secondary-preferred read target)
- PostgreSQL, MySQL and SQLite (one table per collection)
- bbolt files and an in-memory store for dry runs`,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("DocStorm version %s\n", Version)
			os.Exit(0)
		}

		if len(args) == 0 {
			showBanner()
			fmt.Println()
			cmd.Help()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docstorm.config.json or .yaml)")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("docstorm.config")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		color.New(color.FgHiBlack).Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		color.Red("❌ Failed to read config file %s: %v", cfgFile, err)
	}
}
