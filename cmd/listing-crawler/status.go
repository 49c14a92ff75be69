package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/listing-crawler/pkg/status"
)

func newStatusCmd() *cobra.Command {
	var (
		redisURL string
		staleAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "status <city>",
		Short: "Show the latest crawl status recorded in Redis for a city.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if redisURL == "" {
				return fmt.Errorf("--redis-url is required")
			}

			client, err := connectRedis(cmd.Context(), redisURL)
			if err != nil {
				return err
			}
			defer client.Close()

			store := status.NewStore(client, zerolog.Nop(), status.DefaultRetention)
			st, err := store.Latest(cmd.Context(), strings.ToLower(args[0]))
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if status.IsStale(st, staleAge) {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: crawl %s has not reported for over %s\n", st.CrawlID, staleAge)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&redisURL, "redis-url", getEnv("REDIS_URL", ""), "redis address or URL")
	cmd.Flags().DurationVar(&staleAge, "stale-after", 5*time.Minute, "flag running crawls without updates for this long")
	return cmd
}
