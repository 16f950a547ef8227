package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"swipr-api/internal/config"
)

func buildCheckCommand() *cobra.Command {
	var baseURL string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run production readiness checks against configuration and a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = "http://localhost:" + strconv.Itoa(cfg.Server.Port)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if !runChecks(ctx, cfg, baseURL, &http.Client{Timeout: timeout}, os.Stdout) {
				return fmt.Errorf("readiness checks failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "base URL of the running server (default http://localhost:<port>)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "timeout per HTTP probe")
	return cmd
}

type checkResult struct {
	name   string
	passed bool
	detail string
}

// runChecks prints one line per check and reports whether all of them passed
func runChecks(ctx context.Context, cfg *config.Config, baseURL string, client *http.Client, w io.Writer) bool {
	var results []checkResult

	results = append(results,
		checkResult{"admin token configured", len(cfg.Admin.Tokens) > 0, "set ADMIN_TOKEN"},
		checkResult{"database configured", cfg.Database.URL != "" && !cfg.Database.Disabled, "set DATABASE_URL"},
		checkResult{"resume size limit", cfg.Uploads.MaxBytes > 0, "set UPLOAD_MAX_BYTES"},
	)
	if !cfg.SpacesConfigured() {
		fmt.Fprintf(w, "note: resumes are stored on local disk in %s\n", cfg.Uploads.Dir)
	}
	if cfg.Events.NATSURL == "" {
		fmt.Fprintln(w, "note: submission events are not published (NATS_URL unset)")
	}

	base := strings.TrimRight(baseURL, "/")
	for _, path := range []string{"/health", "/health/ready", "/health/live", "/waitlist"} {
		results = append(results, probe(ctx, client, base+path))
	}

	passed := true
	for _, r := range results {
		mark := "PASS"
		if !r.passed {
			mark = "FAIL"
			passed = false
		}
		line := fmt.Sprintf("[%s] %s", mark, r.name)
		if !r.passed && r.detail != "" {
			line += " (" + r.detail + ")"
		}
		fmt.Fprintln(w, line)
	}

	if passed {
		fmt.Fprintln(w, "All checks passed")
	}
	return passed
}

func probe(ctx context.Context, client *http.Client, url string) checkResult {
	name := "GET " + url
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return checkResult{name, false, err.Error()}
	}
	resp, err := client.Do(req)
	if err != nil {
		return checkResult{name, false, err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return checkResult{name, false, "status " + strconv.Itoa(resp.StatusCode)}
	}
	return checkResult{name, true, ""}
}
