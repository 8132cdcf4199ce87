// Command tipsheetctl is the administrative CLI for the tip sheet. It talks
// to the same backing spreadsheet as the server, configured from the same
// environment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tipsheet/internal/app/server"
	"tipsheet/internal/auth"
	"tipsheet/internal/domain/roster"
	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/platform/config"
	"tipsheet/internal/platform/report"
	"tipsheet/internal/platform/sheets"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type env struct {
	cfg     config.Config
	backend sheets.Backend
	service *timesheet.Service
	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

func open(ctx context.Context) (*env, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	backend, closeBackend, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, backend: backend, closers: []func() error{closeBackend}}
	locker, closeLocker, err := server.OpenLocker(ctx, cfg)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.closers = append(e.closers, closeLocker)
	store := timesheet.NewStore(backend, locker, timesheet.WithFormulas(cfg.InjectFormulas))
	e.service = timesheet.NewService(store, loc, cfg.StoreTimeout)
	return e, nil
}

func withEnv(run func(ctx context.Context, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		e, err := open(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		return run(ctx, e, args)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "tipsheetctl",
		Short:         "Administer the employee tip sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			switch strings.ToLower(logLevel) {
			case "debug":
				level = slog.LevelDebug
			case "info":
				level = slog.LevelInfo
			case "error":
				level = slog.LevelError
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(rosterCmd(), hoursCmd(), tipsCmd(), totalsCmd(), reportCmd(), monthCmd(), hashCmd())
	return cmd
}

func rosterCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "roster", Short: "Manage the Settings roster"}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Replace the roster from a .csv, .xls or .xlsx file with Name and PIN columns",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			entries, err := roster.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := roster.Import(ctx, e.backend, entries); err != nil {
				return err
			}
			fmt.Printf("imported %d employees\n", len(entries))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roster names",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
			entries, err := roster.NewSource(e.backend).Entries(ctx)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				fmt.Println(entry.Name)
			}
			return nil
		}),
	})
	return cmd
}

func hoursCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hours <YYYY-MM-DD>",
		Short: "Print hours recorded for a date",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			date, err := e.service.ParseDate(args[0])
			if err != nil {
				return err
			}
			hours, err := e.service.HoursForDate(ctx, date)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(hours))
			for name := range hours {
				names = append(names, name)
			}
			sort.Strings(names)
			total := decimal.Zero
			for _, name := range names {
				fmt.Printf("%-24s %8s\n", name, hours[name].StringFixed(2))
				total = total.Add(hours[name])
			}
			fmt.Printf("%-24s %8s\n", "Total", total.StringFixed(2))
			return nil
		}),
	}
}

func printDaily(daily timesheet.DailyTips) {
	p := daily.Payouts
	fmt.Printf("%s  tips %s  hours %s  rate %s\n",
		daily.Date.Format("2006-01-02"), p.TotalTips.StringFixed(2), p.TotalHours.StringFixed(2), p.TipRate.StringFixed(4))
	for _, name := range p.Employees() {
		fmt.Printf("%-24s %8s %10s\n", name, p.Hours[name].StringFixed(2), p.ByEmployee[name].StringFixed(2))
	}
}

func tipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tips <YYYY-MM-DD> <amount>",
		Short: "Record the day's tip total and write the payouts",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			date, err := e.service.ParseDate(args[0])
			if err != nil {
				return err
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			daily, err := e.service.SubmitDailyTips(ctx, date, amount)
			if err != nil {
				return err
			}
			printDaily(daily)
			return nil
		}),
	}
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals <YYYY-MM-DD>",
		Short: "Print the stored tip split for a date",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			date, err := e.service.ParseDate(args[0])
			if err != nil {
				return err
			}
			daily, err := e.service.DailyTotals(ctx, date)
			if err != nil {
				return err
			}
			printDaily(daily)
			return nil
		}),
	}
}

func reportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "report <YYYY-MM-DD>",
		Short: "Write the day's payout report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			date, err := e.service.ParseDate(args[0])
			if err != nil {
				return err
			}
			daily, err := e.service.DailyTotals(ctx, date)
			if err != nil {
				return err
			}
			if output == "" {
				output = "tips-" + date.Format("2006-01-02") + ".pdf"
			}
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := report.DailyPayouts(f, daily); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Println(output)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default tips-<date>.pdf)")
	return cmd
}

func monthCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "month", Short: "Inspect and prepare monthly sheets"}

	cmd.AddCommand(&cobra.Command{
		Use:   "status <YYYY-MM-DD>",
		Short: "Show whether the month holding a date still accepts submissions",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(ctx context.Context, e *env, args []string) error {
			date, err := e.service.ParseDate(args[0])
			if err != nil {
				return err
			}
			status := e.service.MonthStatus(date)
			state := "open"
			if status.Closed {
				state = "closed"
			}
			fmt.Printf("%s: %s (cutoff %s)\n", status.Sheet, state, status.Cutoff.Format("2006-01-02 15:04 MST"))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ensure",
		Short: "Create the current month's sheet if it is missing",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(ctx context.Context, e *env, _ []string) error {
			title, err := e.service.EnsureCurrentMonth(ctx)
			if err != nil {
				return err
			}
			fmt.Println(title)
			return nil
		}),
	})
	return cmd
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for MANAGER_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}
