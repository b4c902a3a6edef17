package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LegalDragon/Pickleball-Community-sub007/utils"
	"github.com/spf13/cobra"
)

const operatorHeader = "X-Operator-Key"

var httpClient = &http.Client{Timeout: 30 * time.Second}

func init() {
	for _, action := range []string{"start", "next", "complete", "cancel"} {
		drawingCmd.AddCommand(divisionPost(action, "drawing/"+action, strings.ToUpper(action[:1])+action[1:]+" the unit drawing of a division"))
	}
	drawingCmd.AddCommand(&cobra.Command{
		Use:   "state <divisionID>",
		Short: "Show the drawing state of a division",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(cmd.OutOrStdout(), http.MethodGet, divisionPath(args[0], "drawing"), nil)
		},
	})

	generateCmd.Flags().Int("target-units", 0, "Target unit count (defaults to the division capacity)")
	generateCmd.Flags().String("bracket-type", "", "Bracket type override")
	generateCmd.Flags().Int("pools", 0, "Pool count for pool play")
	generateCmd.Flags().Int("games-per-match", 0, "Games per match")
	scheduleCmd.AddCommand(generateCmd)
	scheduleCmd.AddCommand(&cobra.Command{
		Use:   "clear <divisionID>",
		Short: "Remove the generated schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(cmd.OutOrStdout(), http.MethodDelete, divisionPath(args[0], "schedule"), nil)
		},
	})
	scheduleCmd.AddCommand(divisionPost("finalize", "schedule/finalize", "Finalize the schedule of a division"))

	waitlistCmd.AddCommand(&cobra.Command{
		Use:   "promote <divisionID> <unitID>",
		Short: "Promote a waitlisted unit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(cmd.OutOrStdout(), http.MethodPost, divisionPath(args[0], "units/"+args[1]+"/promote"), nil)
		},
	})

	unitsCmd.AddCommand(&cobra.Command{
		Use:   "assign-numbers <divisionID> [unitID=number ...]",
		Short: "Assign unit numbers, randomly when no pairs are given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			numbers := map[string]int{}
			for _, pair := range args[1:] {
				id, n, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("expected unitID=number, got %q", pair)
				}
				v, err := strconv.Atoi(n)
				if err != nil {
					return fmt.Errorf("invalid number for %s: %w", id, err)
				}
				numbers[id] = v
			}
			return performRequest(cmd.OutOrStdout(), http.MethodPost, divisionPath(args[0], "unit-numbers"), map[string]any{"numbers": numbers})
		},
	})

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(hashKeyCmd)
	rootCmd.AddCommand(drawingCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(waitlistCmd)
	rootCmd.AddCommand(unitsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(cmd.OutOrStdout(), http.MethodGet, "/healthz", nil)
	},
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <key>",
	Short: "Print the OPERATOR_API_KEY_HASH value for an operator key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := utils.HashOperatorKey(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var drawingCmd = &cobra.Command{
	Use:   "drawing",
	Short: "Run the live unit drawing",
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Generate and manage division schedules",
}

var waitlistCmd = &cobra.Command{
	Use:   "waitlist",
	Short: "Manage the division waitlist",
}

var unitsCmd = &cobra.Command{
	Use:   "units",
	Short: "Manage registered units",
}

var generateCmd = &cobra.Command{
	Use:   "generate <divisionID>",
	Short: "Generate the schedule of a division",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{}
		if v, _ := cmd.Flags().GetInt("target-units"); v > 0 {
			body["target_unit_count"] = v
		}
		if v, _ := cmd.Flags().GetString("bracket-type"); v != "" {
			body["bracket_type"] = v
		}
		if v, _ := cmd.Flags().GetInt("pools"); v > 0 {
			body["pool_count"] = v
		}
		if v, _ := cmd.Flags().GetInt("games-per-match"); v > 0 {
			body["games_per_match"] = v
		}
		return performRequest(cmd.OutOrStdout(), http.MethodPost, divisionPath(args[0], "schedule"), body)
	},
}

func divisionPost(use, path, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <divisionID>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(cmd.OutOrStdout(), http.MethodPost, divisionPath(args[0], path), nil)
		},
	}
}

func divisionPath(divisionID, rest string) string {
	return "/api/v1/divisions/" + divisionID + "/" + rest
}

func performRequest(out io.Writer, method, endpoint string, payload any) error {
	url := strings.TrimRight(apiURL, "/") + endpoint
	fmt.Fprintf(out, "Making %s request to %s\n", method, url)

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set(operatorHeader, apiKey)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Fprintf(out, "Status Code: %d\n", resp.StatusCode)
	fmt.Fprintln(out, "Response Body:")
	fmt.Fprintln(out, string(respBody))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server responded with %s", resp.Status)
	}
	return nil
}
