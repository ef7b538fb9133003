package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xxxsen/gsqlai/internal/pkg/jwt"
	"github.com/xxxsen/gsqlai/internal/schedule"
)

func newChunksCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chunks",
		Short: "list the knowledge sections parsed from the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			chunks := newKnowledgeStore(cfg).Chunks(cmd.Context())
			title := color.New(color.FgCyan, color.Bold)
			dim := color.New(color.Faint)
			for _, c := range chunks {
				title.Fprintf(cmd.OutOrStdout(), "%3d %s", c.ID, c.Title)
				dim.Fprintf(cmd.OutOrStdout(), "  %s  %d chars\n", c.Hash, len([]rune(c.Content)))
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", strings.Join(c.Keywords, ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d sections\n", len(chunks))
			return nil
		},
	}
}

func newSearchCmd(configPath *string) *cobra.Command {
	var (
		schema string
		topK   int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "score knowledge sections against a query without calling the model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			svc, _, err := newGSQLService(cfg, nil)
			if err != nil {
				return err
			}
			scored, err := svc.Search(cmd.Context(), strings.Join(args, " "), schema, topK)
			if err != nil {
				return err
			}
			if len(scored) == 0 {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "no matching sections")
				return nil
			}
			score := color.New(color.FgGreen, color.Bold)
			for i, s := range scored {
				score.Fprintf(cmd.OutOrStdout(), "%2d. [%4d] ", i+1, s.Score)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.Chunk.Title, s.Chunk.Hash)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&schema, "schema", "", "graph schema text added to the query terms")
	cmd.Flags().IntVar(&topK, "top-k", 0, "maximum number of sections to show")
	return cmd
}

func newTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint a bearer token signed with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if userID == "" {
				return fmt.Errorf("--user is required")
			}
			token, err := jwt.GenerateToken(userID, email, []byte(cfg.Auth.JWTSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token subject")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newJobsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "list the background jobs and their next run time",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler, closeFn, err := buildScheduler(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			name := color.New(color.FgCyan, color.Bold)
			for _, e := range scheduler.Entries() {
				name.Fprintf(cmd.OutOrStdout(), "%-16s", e.Name)
				fmt.Fprintf(cmd.OutOrStdout(), " %-14s next %s\n", e.Spec, e.Next.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "run a background job once and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler, closeFn, err := buildScheduler(*configPath)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := scheduler.Trigger(args[0]); err != nil {
				return fmt.Errorf("run job %s: %w", args[0], err)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "job %s finished\n", args[0])
			return nil
		},
	})
	return cmd
}

func buildScheduler(configPath string) (*schedule.CronScheduler, func(), error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	conn, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if conn != nil {
			_ = conn.Close()
		}
	}
	svc, generations, err := newGSQLService(cfg, conn)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	scheduler, err := newScheduler(cfg, svc, generations)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return scheduler, closeFn, nil
}
