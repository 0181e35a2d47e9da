package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nicolas-geysse/encode-club-hackathon-2026-sub002/internal/config"
)

// --- chat ---

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session against the running server",
	Long: `Interactive chat session against the running server.

Starts a new onboarding session (or resumes one with --session) and
reads messages from stdin until EOF or "exit".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if sessionID == "" {
			resp, err := client.post(ctx, "/v1/sessions", nil)
			if err != nil {
				return err
			}
			var created struct {
				ID     string `json:"id"`
				Prompt string `json:"prompt"`
			}
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}
			sessionID = created.ID
			printSuccess("Session %s", sessionID)
			fmt.Println(created.Prompt)
		} else {
			resp, err := client.get(ctx, "/v1/sessions/"+sessionID+"/profile")
			if err != nil {
				return err
			}
			var state struct {
				Step string `json:"step"`
			}
			if err := decodeJSON(resp, &state); err != nil {
				return err
			}
			printSuccess("Resumed session %s (step %s)", sessionID, state.Step)
		}

		wasComplete := false
		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print(colorize(colorCyan, "you> "))
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "exit" || line == "quit" {
				return nil
			}

			resp, err := client.post(ctx, "/v1/sessions/"+sessionID+"/turns", map[string]any{
				"message": line,
			})
			if err != nil {
				return err
			}
			var turn struct {
				Response   string `json:"response"`
				NextStep   string `json:"nextStep"`
				IsComplete bool   `json:"isComplete"`
			}
			if err := decodeJSON(resp, &turn); err != nil {
				printError("%v", err)
				continue
			}

			fmt.Println(turn.Response)
			if turn.IsComplete && !wasComplete {
				wasComplete = true
				printSuccess("Onboarding complete — keep chatting to set goals or update your profile")
			}
		}
	},
}

func init() {
	chatCmd.Flags().String("session", "", "resume an existing session by id")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			printStatus(k.Key, "%s  (env %s)", k.Value, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration key",
	Long: fmt.Sprintf(`Set a configuration key in the config file.

Valid keys: %s`, strings.Join(config.ValidKeys(), ", ")),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetKey(args[0], args[1]); err != nil {
			return err
		}
		printSuccess("Set %s = %s", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
