package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	family  string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "valuations-cli",
		Short:         "Valuations CLI tool",
		Long:          `A command line interface for reconciling account balances and reading net worth.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the valuations API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&family, "family", "", "Family ID")

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(netWorthCmd())
	rootCmd.AddCommand(totalsCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(ratesCmd())

	return rootCmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Record or change account valuations",
	}

	cmd.AddCommand(reconcileCreateCmd())
	cmd.AddCommand(reconcileUpdateCmd())

	return cmd
}

func reconcileCreateCmd() *cobra.Command {
	var (
		accountID    string
		amount       string
		date         string
		currency     string
		exchangeRate string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Set an account's balance on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"account_id": accountID,
				"amount":     amount,
				"date":       date,
			}
			if currency != "" {
				body["currency"] = currency
			}
			if exchangeRate != "" {
				body["exchange_rate"] = exchangeRate
			}

			path := familyPath("/valuations")
			if dryRun {
				path += "/confirm"
			}

			return call(cmd, http.MethodPost, path, body)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Balance on the date")
	cmd.Flags().StringVar(&date, "date", "", "Date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency of the amount, defaults to the account currency")
	cmd.Flags().StringVar(&exchangeRate, "exchange-rate", "", "Rate from the amount currency to the account currency")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without saving")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func reconcileUpdateCmd() *cobra.Command {
	var dryRun bool
	fields := []string{"amount", "date", "currency", "exchange-rate", "notes"}

	cmd := &cobra.Command{
		Use:   "update <entry-id>",
		Short: "Change an existing valuation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Only flags given on the command line are sent
			body := map[string]string{}
			for _, name := range fields {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					body[jsonField(name)] = v
				}
			}

			path := familyPath("/valuations/" + url.PathEscape(args[0]))
			if dryRun {
				return call(cmd, http.MethodPost, path+"/confirm", body)
			}
			return call(cmd, http.MethodPatch, path, body)
		},
	}

	for _, name := range fields {
		cmd.Flags().String(name, "", "New "+name)
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview without saving")

	return cmd
}

func netWorthCmd() *cobra.Command {
	var (
		period    string
		startDate string
		endDate   string
		current   bool
	)

	cmd := &cobra.Command{
		Use:   "net-worth",
		Short: "Show the family net worth series",
		RunE: func(cmd *cobra.Command, args []string) error {
			if current {
				return call(cmd, http.MethodGet, familyPath("/net_worth/current"), nil)
			}

			q := url.Values{}
			if period != "" {
				q.Set("period", period)
			}
			if startDate != "" {
				q.Set("start_date", startDate)
			}
			if endDate != "" {
				q.Set("end_date", endDate)
			}

			path := familyPath("/net_worth")
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			return call(cmd, http.MethodGet, path, nil)
		},
	}

	cmd.Flags().StringVar(&period, "period", "", "Named period, e.g. last_30_days")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&current, "current", false, "Only today's net worth")

	return cmd
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show the family balance sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd, http.MethodGet, familyPath("/account_totals"), nil)
		},
	}
}

func familyPath(suffix string) string {
	return "/api/v1/families/" + url.PathEscape(family) + suffix
}

func jsonField(flag string) string {
	if flag == "exchange-rate" {
		return "exchange_rate"
	}
	return flag
}

// call sends a request to the API and prints the response body.
func call(cmd *cobra.Command, method, path string, body any) error {
	if family == "" {
		return fmt.Errorf("--family is required")
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(cmd.Context(), method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), decoded)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
