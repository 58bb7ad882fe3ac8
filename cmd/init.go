package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/docstorm/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initProvider string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter config, schema and .env",
	Long: `Write docstorm.config.yaml and a sample schema100.json into the current
directory and add CLUSTER_URL to .env. Existing files are left alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initializeProject(template.ValidateDatabaseType(initProvider))
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initProvider, "provider", "mongodb", "Database provider for the starter config")
}

func initializeProject(dbType template.DatabaseType) error {
	tmpl := template.NewProjectTemplate(dbType)

	files := map[string]string{
		template.ConfigFileName: tmpl.GetConfig(),
		template.SchemaFileName: tmpl.GetSchema(),
	}

	var created, skipped []string
	for filePath, content := range files {
		if _, err := os.Stat(filePath); err == nil {
			skipped = append(skipped, filePath)
			continue
		}
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", filePath, err)
		}
		created = append(created, filePath)
	}

	if err := handleEnvFile(tmpl.GetEnvTemplate()); err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	color.Green("✅ Initialized DocStorm project for %s", dbType)
	for _, f := range created {
		fmt.Printf("   📝 %s\n", f)
	}
	for _, f := range skipped {
		fmt.Printf("   ℹ️  Skipped %s (already exists)\n", f)
	}
	if os.Getenv("CLUSTER_URL") != "" {
		fmt.Println("   ℹ️  Using existing CLUSTER_URL from environment")
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   docstorm schema     # Check the schema\n")
	fmt.Printf("   docstorm generate   # Preview documents\n")
	fmt.Printf("   docstorm run        # Start the load\n")

	return nil
}

func handleEnvFile(defaultEnvContent string) error {
	envPath := ".env"

	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	if strings.Contains(existingStr, "CLUSTER_URL") {
		return nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}
	existingStr += "\n# Added by DocStorm\n" + defaultEnvContent

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}
