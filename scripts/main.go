package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/flexprice/payhook/scripts/internal"
	"github.com/joho/godotenv"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "generate-secret",
		Description: "Generate a new inbound webhook secret (and its encrypted form when an encryption key is configured)",
		Run:         internal.GenerateWebhookSecret,
	},
	{
		Name:        "send-test-webhook",
		Description: "Sign and send sample payment webhooks to a running receiver",
		Run:         internal.SendTestWebhooks,
	},
}

func main() {
	// Pick up PAYHOOK_* and WEBHOOK_* values from a local .env, if present
	godotenv.Load()

	// Define command line flags
	var (
		listCommands bool
		cmdName      string
		url          string
		count        string
		rps          string
		action       string
		status       string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&url, "url", "", "Receiver URL for send-test-webhook")
	flag.StringVar(&count, "count", "", "Number of webhooks to send")
	flag.StringVar(&rps, "rps", "", "Requests per second for send-test-webhook")
	flag.StringVar(&action, "action", "", "Payment action (TRANSFER, BUY, SELL)")
	flag.StringVar(&status, "status", "", "Payment status (PENDING, FAILED, COMPLETED)")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-20s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	// Set command-specific environment variables
	if url != "" {
		os.Setenv("WEBHOOK_URL", url)
	}
	if count != "" {
		os.Setenv("WEBHOOK_COUNT", count)
	}
	if rps != "" {
		os.Setenv("WEBHOOK_RPS", rps)
	}
	if action != "" {
		os.Setenv("WEBHOOK_ACTION", action)
	}
	if status != "" {
		os.Setenv("WEBHOOK_STATUS", status)
	}

	// Find and run the command
	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
