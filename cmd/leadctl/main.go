// Package main provides leadctl, a command-line client for the lead API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmanzer2/lead-gen/internal/leadclient"
	"github.com/dmanzer2/lead-gen/internal/leadform"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	apiURL  string
	timeout time.Duration
	json    bool
}

func (g *globalFlags) client() (*leadclient.Client, error) {
	return leadclient.New(g.apiURL)
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	apiURL := os.Getenv("LEADGEN_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	cmd := &cobra.Command{
		Use:           "leadctl",
		Short:         "Submit and inspect smart home leads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.apiURL, "api", apiURL, "Lead API base URL (env LEADGEN_API_URL)")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 15*time.Second, "Overall request timeout")
	cmd.PersistentFlags().BoolVar(&g.json, "json", false, "Print JSON instead of tables")

	cmd.AddCommand(optionsCmd(g), submitCmd(g))
	return cmd
}

func optionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "List budget ranges and project timelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			ranges, err := c.BudgetRanges(ctx)
			if err != nil {
				return fmt.Errorf("fetch budget ranges: %w", err)
			}
			timelines, err := c.ProjectTimelines(ctx)
			if err != nil {
				return fmt.Errorf("fetch project timelines: %w", err)
			}

			out := cmd.OutOrStdout()
			if g.json {
				return writeJSON(out, map[string]any{"budget_ranges": ranges, "project_timelines": timelines})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BUDGET ID\tLABEL")
			for _, r := range ranges {
				fmt.Fprintf(tw, "%d\t%s\n", r.ID, r.RangeLabel)
			}
			fmt.Fprintln(tw, "")
			fmt.Fprintln(tw, "TIMELINE ID\tLABEL")
			for _, t := range timelines {
				fmt.Fprintf(tw, "%d\t%s\n", t.ID, t.TimelineLabel)
			}
			return tw.Flush()
		},
	}
}

func submitCmd(g *globalFlags) *cobra.Command {
	var (
		s        leadform.Submission
		budgetID int64
		timeline int64
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate and submit a lead",
		Long: `Validate a lead locally with the same rules the server applies, confirm
the selected budget range and timeline exist, then post it.

Example:
  leadctl submit --contact-type personal --first-name Ada --last-name Lovelace \
    --email ada@example.com --phone "(480) 555-1234" --city Phoenix \
    --zip 85001 --county Maricopa --comments "Whole-home lighting" \
    --budget 2 --timeline 3
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s.EstimatedBudgetID = leadform.RefID(strconv.FormatInt(budgetID, 10))
			s.ProjectTimelineID = leadform.RefID(strconv.FormatInt(timeline, 10))

			normalized, err := leadform.Validate(s)
			if err != nil {
				return reportInvalid(cmd.ErrOrStderr(), err)
			}

			c, err := g.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			ranges, err := c.BudgetRanges(ctx)
			if err != nil {
				return fmt.Errorf("fetch budget ranges: %w", err)
			}
			timelines, err := c.ProjectTimelines(ctx)
			if err != nil {
				return fmt.Errorf("fetch project timelines: %w", err)
			}
			budgetIDs := make([]int64, 0, len(ranges))
			for _, r := range ranges {
				budgetIDs = append(budgetIDs, r.ID)
			}
			timelineIDs := make([]int64, 0, len(timelines))
			for _, t := range timelines {
				timelineIDs = append(timelineIDs, t.ID)
			}
			if err := leadform.CheckReferences(normalized, budgetIDs, timelineIDs); err != nil {
				return reportInvalid(cmd.ErrOrStderr(), err)
			}

			out := cmd.OutOrStdout()
			if dryRun {
				fmt.Fprintln(out, "lead is valid; not submitted (--dry-run)")
				return nil
			}

			lead, err := c.Submit(ctx, s)
			if err != nil {
				var apiErr *leadclient.APIError
				if errors.As(err, &apiErr) && len(apiErr.Details) > 0 {
					return reportInvalid(cmd.ErrOrStderr(), apiErr.Details)
				}
				return err
			}
			if g.json {
				return writeJSON(out, lead)
			}
			fmt.Fprintf(out, "submitted lead %d for %s\n", lead.ID, lead.FullName())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&s.ContactType, "contact-type", "Personal", "Business or Personal")
	f.StringVar(&s.FirstName, "first-name", "", "First name")
	f.StringVar(&s.LastName, "last-name", "", "Last name")
	f.StringVar(&s.CompanyName, "company", "", "Company name (optional)")
	f.StringVar(&s.Email, "email", "", "Email address")
	f.StringVar(&s.PhoneNumber, "phone", "", "Phone number")
	f.StringVar(&s.City, "city", "", "City")
	f.StringVar(&s.ZipCode, "zip", "", "ZIP code")
	f.StringVar(&s.AZCounty, "county", "", "Arizona county")
	f.StringVar(&s.Comments, "comments", "", "Project description")
	f.Int64Var(&budgetID, "budget", 0, "Budget range id (see 'leadctl options')")
	f.Int64Var(&timeline, "timeline", 0, "Project timeline id (see 'leadctl options')")
	f.BoolVar(&dryRun, "dry-run", false, "Validate only")
	return cmd
}

var errInvalidLead = errors.New("lead failed validation")

func reportInvalid(w io.Writer, err error) error {
	var fieldErrs leadform.Errors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			fmt.Fprintf(w, "  %s: %s\n", fe.Path, fe.Message)
		}
		return errInvalidLead
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
