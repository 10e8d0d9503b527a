package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/leadpay/earnings/internal/adapter/provider"
)

var (
	baseURL string
	timeout time.Duration
	asUser  string
	asRole  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "earnings-cli",
		Short: "Earnings service CLI",
		Long:  `A command line interface for the earnings ledger and payout API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the earnings API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&asUser, "as-user", "", "X-User-ID header (trusted-header auth mode)")
	rootCmd.PersistentFlags().StringVar(&asRole, "as-role", "", "X-User-Role header (admin or operator)")

	rootCmd.AddCommand(
		balanceCmd(),
		rewardsCmd(),
		webhooksCmd(),
		withdrawalsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the available balance for --as-user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/balance", nil)
		},
	}
}

func rewardsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "Show rewards history for --as-user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, fmt.Sprintf("/api/v1/rewards?limit=%d", limit), nil)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to return")

	return cmd
}

func webhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhooks",
		Short: "Webhook monitoring and replay",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Per-provider delivery counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/admin/webhooks/stats", nil)
		},
	})

	var (
		providerFilter string
		limit          int
	)
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Recent webhook deliveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/admin/webhooks/recent?limit=%d", limit)
			if providerFilter != "" {
				path += "&provider=" + providerFilter
			}
			return doJSON(http.MethodGet, path, nil)
		},
	}
	recent.Flags().StringVar(&providerFilter, "provider", "", "Filter by provider")
	recent.Flags().IntVar(&limit, "limit", 20, "Maximum records to return")
	cmd.AddCommand(recent)

	var secret string
	send := &cobra.Command{
		Use:   "send <provider> <payload-file>",
		Short: "Sign a JSON payload and deliver it to /webhooks/{provider}",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			req, err := newRequest(http.MethodPost, "/webhooks/"+args[0], bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(provider.SignatureHeader, provider.Sign(secret, body))

			return execute(req)
		},
	}
	send.Flags().StringVar(&secret, "secret", "", "Shared provider secret used to sign the payload")
	_ = send.MarkFlagRequired("secret")
	cmd.AddCommand(send)

	return cmd
}

func withdrawalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "withdrawals",
		Short: "Withdrawal lifecycle operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List withdrawals for --as-user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/withdrawals", nil)
		},
	})

	var (
		amount      string
		method      string
		destination string
	)
	request := &cobra.Command{
		Use:   "request",
		Short: "Request a withdrawal for --as-user",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{
				"amount":      amount,
				"currency":    "USD",
				"method":      method,
				"destination": destination,
			})

			req, err := newRequest(http.MethodPost, "/api/v1/withdrawals", bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			// A fresh key per invocation; re-running the command creates a
			// new withdrawal rather than replaying the previous response.
			req.Header.Set("Idempotency-Key", uuid.NewString())

			return execute(req)
		},
	}
	request.Flags().StringVar(&amount, "amount", "", "Withdrawal amount, e.g. 25.00")
	request.Flags().StringVar(&method, "method", "paypal", "Payout method")
	request.Flags().StringVar(&destination, "destination", "", "Payout destination, e.g. a PayPal email")
	_ = request.MarkFlagRequired("amount")
	_ = request.MarkFlagRequired("destination")
	cmd.AddCommand(request)

	cmd.AddCommand(&cobra.Command{
		Use:   "processing <id>",
		Short: "Move a pending withdrawal to processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodPost, "/api/v1/admin/withdrawals/"+args[0]+"/processing", strings.NewReader("{}"))
		},
	})

	var confirmationRef string
	complete := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete a processing withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"confirmation_ref": confirmationRef})
			return doJSON(http.MethodPost, "/api/v1/admin/withdrawals/"+args[0]+"/complete", bytes.NewReader(body))
		},
	}
	complete.Flags().StringVar(&confirmationRef, "ref", "", "Payment processor confirmation reference")
	cmd.AddCommand(complete)

	var reason string
	reject := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a withdrawal and release the hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, _ := json.Marshal(map[string]string{"reason": reason})
			return doJSON(http.MethodPost, "/api/v1/admin/withdrawals/"+args[0]+"/reject", bytes.NewReader(body))
		},
	}
	reject.Flags().StringVar(&reason, "reason", "", "Why the withdrawal is rejected")
	cmd.AddCommand(reject)

	return cmd
}

func newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	if asRole != "" {
		req.Header.Set("X-User-Role", asRole)
	}

	return req, nil
}

func doJSON(method, path string, body io.Reader) error {
	req, err := newRequest(method, path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return execute(req)
}

func execute(req *http.Request) error {
	client := &http.Client{Timeout: timeout}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		fmt.Println(truncate(string(raw), 2000))
	} else {
		printJSON(decoded)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
