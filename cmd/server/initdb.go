package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"swipr-api/internal/config"
	"swipr-api/internal/service"
	"swipr-api/internal/store"
	"swipr-api/pkg/models"
)

func buildInitDBCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Verify the document store and rebuild its indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return initDB(cmd.Context(), cfg, os.Stdout)
		},
	}
}

// initDB pings the database, restores timelines and the waitlist email index, and
// prints the size of every collection
func initDB(ctx context.Context, cfg *config.Config, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	client := store.NewClient(cfg)
	defer client.Close()

	if err := client.Ping(ctx); err != nil {
		return fmt.Errorf("document store unreachable: %w", err)
	}
	if client.Connect(ctx) == nil {
		return fmt.Errorf("document store unreachable: %w", client.LastError())
	}
	fmt.Fprintf(w, "Connected to %s (prefix %q)\n", redactURL(cfg.Database.URL), client.KeyPrefix())

	apps := store.NewRedisCollection[models.JobApplication](client, "applications")
	contacts := store.NewRedisCollection[models.ContactMessage](client, "contacts")
	waitlist := store.NewRedisCollection[models.WaitlistEntry](client, "waitlist")

	repairs := []struct {
		name   string
		repair func() (int, error)
		count  func() (int, error)
	}{
		{
			name:   apps.Name(),
			repair: func() (int, error) { return apps.Repair(ctx, "", nil) },
			count:  func() (int, error) { return apps.Count(ctx) },
		},
		{
			name:   contacts.Name(),
			repair: func() (int, error) { return contacts.Repair(ctx, "", nil) },
			count:  func() (int, error) { return contacts.Count(ctx) },
		},
		{
			name: waitlist.Name(),
			repair: func() (int, error) {
				return waitlist.Repair(ctx, service.EmailIndex, func(e models.WaitlistEntry) string {
					return strings.ToLower(e.Email)
				})
			},
			count: func() (int, error) { return waitlist.Count(ctx) },
		},
	}

	for _, r := range repairs {
		written, err := r.repair()
		if err != nil {
			return fmt.Errorf("repair %s: %w", r.name, err)
		}
		n, err := r.count()
		if err != nil {
			return fmt.Errorf("count %s: %w", r.name, err)
		}
		fmt.Fprintf(w, "  %-14s %6d documents, %d index entries restored\n", r.name, n, written)
	}

	fmt.Fprintln(w, "Document store ready")
	return nil
}

// redactURL hides the password of a connection string
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "***" + raw[at:]
}
