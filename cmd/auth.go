package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/krishi-mitra/internal/credentials"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys for the model and weather services",
	Long: `Store and manage API keys for the generation and weather services.

Keys are stored in ~/.krishi/credentials.json and used as a fallback
when environment variables are not set.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set <service> [key]",
	Short: "Store an API key for a service",
	Long: `Store an API key. If the key is omitted it is read from stdin.

Valid services: google, openai, openweather`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAuthSet,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which services have a usable key",
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	service := args[0]
	var apiKey string
	if len(args) == 2 {
		apiKey = args[1]
	} else {
		fmt.Printf("%s API key: ", service)
		input, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		apiKey = strings.TrimSpace(input)
	}
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	if err := credentials.Set(service, apiKey); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	fmt.Printf("%s credentials stored successfully!\n", service)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	path, err := credentials.Path()
	if err != nil {
		return err
	}
	fmt.Printf("Credentials file: %s\n\n", path)

	fmt.Println("Service      Status")
	fmt.Println("-------      ------")
	for _, service := range credentials.Services() {
		status := "not configured"
		switch {
		case os.Getenv(credentials.EnvVar(service)) != "":
			status = "configured (env " + credentials.EnvVar(service) + ")"
		case credentials.APIKey(service) != "":
			status = "configured"
		}
		fmt.Printf("%-12s %s\n", service, status)
	}
	return nil
}
