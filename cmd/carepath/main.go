package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carepath/internal/bootstrap"
	"carepath/internal/platform/config"
	apperrors "carepath/internal/platform/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, apperrors.ErrSessionExpired) || errors.Is(err, apperrors.ErrNotAuthenticated) {
			_, _ = fmt.Fprintln(os.Stderr, "run `carepath login --token <token>` to sign in")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "carepath",
		Short:         "Patient companion for treatment protocols and daily habits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CAREPATH_HOME/config.yaml)")

	root.AddCommand(newTUICmd(&configPath))
	root.AddCommand(newLoginCmd(&configPath))
	root.AddCommand(newLogoutCmd(&configPath))
	root.AddCommand(newWhoamiCmd(&configPath))
	root.AddCommand(newConfigCmd(&configPath))
	root.AddCommand(newProtocolCmd(&configPath))
	root.AddCommand(newHabitCmd(&configPath))
	return root
}

func loadApp(configPath string) (*bootstrap.App, error) {
	cfg, err := config.New(configPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg)
}

func closeApp(app *bootstrap.App) {
	_ = app.Close()
}

func newTUICmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run carepath terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			return bootstrap.RunTUI(app)
		},
	}
}

func newLoginCmd(configPath *string) *cobra.Command {
	var token, expiresAt string
	cmd := &cobra.Command{
		Use:   "login --token <token>",
		Short: "Store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			st, err := app.SessionCLI.Login(context.Background(), token, expiresAt)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in (%s)%s\n", st.Source, expiryNote(st.ExpiresAt))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token issued by the care platform")
	cmd.Flags().StringVar(&expiresAt, "expires-at", "", "token expiry (RFC 3339, optional)")
	return cmd
}

func newLogoutCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			if err := app.SessionCLI.Logout(context.Background()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			st, err := app.SessionCLI.Status(context.Background())
			if err != nil {
				return err
			}
			switch {
			case !st.LoggedIn && st.Expired:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session expired")
			case !st.LoggedIn:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
			default:
				created := "-"
				if !st.CreatedAt.IsZero() {
					created = st.CreatedAt.Format(time.RFC3339)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in\nsource: %s\ncreated: %s%s\n", st.Source, created, expiryNote(st.ExpiresAt))
			}
			return nil
		},
	}
}

func newConfigCmd(configPath *string) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or initialize configuration"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configPath)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "config: %s\napi_base_url: %s\ntimeout: %s\nlog_level: %s\nlog_file: %s\n",
				cfg.ConfigPath, cfg.APIBaseURL, cfg.Timeout, cfg.LogLevel, cfg.LogFile)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "endpoints:\n  prescriptions: %s\n  prescription_start: %s\n  habits: %s\n  habit_progress: %s\n",
				cfg.Endpoints.Prescriptions, cfg.Endpoints.PrescriptionStart, cfg.Endpoints.Habits, cfg.Endpoints.HabitProgress)
			return nil
		},
	})

	var apiURL string
	initCmd := &cobra.Command{
		Use:   "init [--api-url <url>]",
		Short: "Write the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(*configPath)
			if err != nil {
				return err
			}
			if strings.TrimSpace(apiURL) != "" {
				cfg.APIBaseURL = strings.TrimSpace(apiURL)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfg.ConfigPath)
			return nil
		},
	}
	initCmd.Flags().StringVar(&apiURL, "api-url", "", "backend base URL")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

func newProtocolCmd(configPath *string) *cobra.Command {
	protocol := &cobra.Command{Use: "protocol", Short: "Prescribed treatment protocols"}

	protocol.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List assigned protocols",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			items, err := app.ProtocolCLI.List(context.Background())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no protocols")
				return nil
			}
			for _, a := range items {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), assignmentLine(a))
			}
			return nil
		},
	})

	var showID string
	show := &cobra.Command{
		Use:   "show --id <id>",
		Short: "Show protocol details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(showID) == "" {
				return fmt.Errorf("--id is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			d, err := app.ProtocolCLI.Get(context.Background(), showID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), assignmentDetail(d))
			return nil
		},
	}
	show.Flags().StringVar(&showID, "id", "", "assignment id")
	protocol.AddCommand(show)

	var startID string
	var assumeYes bool
	start := &cobra.Command{
		Use:   "start --id <id> [--yes]",
		Short: "Start a prescribed protocol",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(startID) == "" {
				return fmt.Errorf("--id is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			ctx := context.Background()

			d, err := app.ProtocolCLI.RequestStart(ctx, startID)
			if err != nil {
				return err
			}
			if !assumeYes {
				question := fmt.Sprintf("Start %q (%d days)? [y/N] ", d.Name, d.DurationDays)
				if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question) {
					if err := app.ProtocolCLI.CancelStart(ctx, startID); err != nil {
						return err
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "start cancelled")
					return nil
				}
			}

			out, err := app.ProtocolCLI.ConfirmStart(ctx, startID)
			var already *apperrors.AlreadyStartedError
			switch {
			case errors.As(err, &already):
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "protocol already started on %s\n", already.StartDate)
				return nil
			case err != nil:
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "protocol started: %s status=%s\n", out.AssignmentID, out.Status)
			if id, ok := app.Nav.Pending(); ok {
				if detail, err := app.ProtocolCLI.Get(ctx, id); err == nil {
					_, _ = fmt.Fprint(cmd.OutOrStdout(), assignmentDetail(detail))
				}
			}
			return nil
		},
	}
	start.Flags().StringVar(&startID, "id", "", "assignment id")
	start.Flags().BoolVar(&assumeYes, "yes", false, "skip the confirmation prompt")
	protocol.AddCommand(start)
	return protocol
}

func newHabitCmd(configPath *string) *cobra.Command {
	habit := &cobra.Command{Use: "habit", Short: "Daily habit tracking"}

	var listMonth string
	list := &cobra.Command{
		Use:   "list [--month YYYY-MM]",
		Short: "List habits with progress for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			habits, err := app.HabitCLI.List(context.Background(), listMonth)
			if err != nil {
				return err
			}
			if len(habits) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no habits")
				return nil
			}
			for _, h := range habits {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), habitLine(h))
			}
			return nil
		},
	}
	list.Flags().StringVar(&listMonth, "month", "", "month to load (default current)")
	habit.AddCommand(list)

	var addTitle, addCategory string
	add := &cobra.Command{
		Use:   "add --title <title> --category <category>",
		Short: "Create a habit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(addTitle) == "" {
				return fmt.Errorf("--title is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			h, err := app.HabitCLI.Add(context.Background(), addTitle, addCategory)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "habit created: %s %s (%s)\n", h.ID, h.Title, h.Category)
			return nil
		},
	}
	add.Flags().StringVar(&addTitle, "title", "", "habit title")
	add.Flags().StringVar(&addCategory, "category", "personal", "category: personal|health|work")
	habit.AddCommand(add)

	var editID, editTitle, editCategory string
	edit := &cobra.Command{
		Use:   "edit --id <id> [--title <title>] [--category <category>]",
		Short: "Rename or recategorize a habit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(editID) == "" {
				return fmt.Errorf("--id is required")
			}
			if strings.TrimSpace(editTitle) == "" && strings.TrimSpace(editCategory) == "" {
				return fmt.Errorf("--title or --category is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			h, err := app.HabitCLI.Edit(context.Background(), editID, editTitle, editCategory)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "habit updated: %s %s (%s)\n", h.ID, h.Title, h.Category)
			return nil
		},
	}
	edit.Flags().StringVar(&editID, "id", "", "habit id")
	edit.Flags().StringVar(&editTitle, "title", "", "new title")
	edit.Flags().StringVar(&editCategory, "category", "", "new category")
	habit.AddCommand(edit)

	var rmID string
	rm := &cobra.Command{
		Use:   "rm --id <id>",
		Short: "Delete a habit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(rmID) == "" {
				return fmt.Errorf("--id is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			if err := app.HabitCLI.Remove(context.Background(), rmID); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "habit deleted: %s\n", rmID)
			return nil
		},
	}
	rm.Flags().StringVar(&rmID, "id", "", "habit id")
	habit.AddCommand(rm)

	var toggleID, toggleDate string
	toggle := &cobra.Command{
		Use:   "toggle --id <id> [--date YYYY-MM-DD]",
		Short: "Flip a habit's completion for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(toggleID) == "" {
				return fmt.Errorf("--id is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			out, err := app.HabitCLI.Toggle(context.Background(), toggleID, toggleDate)
			if err != nil {
				return err
			}
			state := "not done"
			if out.IsChecked {
				state = "done"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s on %s: %s\n", out.HabitID, out.Date, state)
			return nil
		},
	}
	toggle.Flags().StringVar(&toggleID, "id", "", "habit id")
	toggle.Flags().StringVar(&toggleDate, "date", "", "day to toggle (default today)")
	habit.AddCommand(toggle)

	var statsDate string
	stats := &cobra.Command{
		Use:   "stats [--date YYYY-MM-DD]",
		Short: "Show completion stats for a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			st, err := app.HabitCLI.Stats(context.Background(), statsDate)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d completed (%d%%)\n", st.Date, st.Completed, st.Total, st.CompletionRate)
			return nil
		},
	}
	stats.Flags().StringVar(&statsDate, "date", "", "day (default today)")
	habit.AddCommand(stats)

	var calID, calMonth string
	calendar := &cobra.Command{
		Use:   "calendar --id <id> [--month YYYY-MM]",
		Short: "Render a habit's month grid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(calID) == "" {
				return fmt.Errorf("--id is required")
			}
			app, err := loadApp(*configPath)
			if err != nil {
				return err
			}
			defer closeApp(app)
			cal, err := app.HabitCLI.Calendar(context.Background(), calID, calMonth)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), renderCalendar(cal))
			return nil
		},
	}
	calendar.Flags().StringVar(&calID, "id", "", "habit id")
	calendar.Flags().StringVar(&calMonth, "month", "", "month (default current)")
	habit.AddCommand(calendar)
	return habit
}

// confirm reads a y/n answer; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprint(out, question)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
