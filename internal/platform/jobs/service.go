package jobs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/platform/config"
	"tipsheet/internal/platform/email"
	"tipsheet/internal/platform/report"
)

const (
	JobMonthSheet    = "month_sheet"
	JobPayoutSummary = "payout_summary"

	maxRuns = 50
)

type MonthEnsurer interface {
	EnsureCurrentMonth(ctx context.Context) (string, error)
}

// Run is the outcome of one job execution, kept in memory for the
// readiness endpoint.
type Run struct {
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
}

type Service struct {
	Cfg    config.Config
	months MonthEnsurer
	mailer email.Mailer
	queue  chan job

	mu   sync.Mutex
	runs []Run
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(cfg config.Config, months MonthEnsurer, mailer email.Mailer) *Service {
	return &Service{
		Cfg:    cfg,
		months: months,
		mailer: mailer,
		queue:  make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.MonthSheetInterval > 0 && s.months != nil {
		go s.scheduleMonthSheets(ctx, s.Cfg.MonthSheetInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

// Runs returns the most recent job outcomes, newest last.
func (s *Service) Runs() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Run, len(s.runs))
	copy(out, s.runs)
	return out
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	run := Run{Type: j.Type, StartedAt: time.Now()}
	details, err := j.Run(ctx)
	run.CompletedAt = time.Now()
	run.Details = details
	run.Status = "completed"
	if err != nil {
		run.Status = "failed"
		run.Error = err.Error()
	}

	s.mu.Lock()
	s.runs = append(s.runs, run)
	if len(s.runs) > maxRuns {
		s.runs = s.runs[len(s.runs)-maxRuns:]
	}
	s.mu.Unlock()
	return details, err
}

// EnsureMonthSheet creates the current month's sheet so the first clock-in
// of a month does not pay for it.
func (s *Service) EnsureMonthSheet(ctx context.Context) (any, error) {
	title, err := s.months.EnsureCurrentMonth(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"sheet": title}, nil
}

func (s *Service) scheduleMonthSheets(ctx context.Context, interval time.Duration) {
	s.Enqueue(JobMonthSheet, s.EnsureMonthSheet)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(JobMonthSheet, s.EnsureMonthSheet)
		}
	}
}

// EnqueuePayoutSummary mails the manager the day's split, with the PDF
// report attached, once tips have been recorded.
func (s *Service) EnqueuePayoutSummary(daily timesheet.DailyTips) {
	if !s.Cfg.EmailEnabled || s.Cfg.ManagerEmail == "" {
		return
	}
	s.Enqueue(JobPayoutSummary, func(ctx context.Context) (any, error) {
		var pdf bytes.Buffer
		if err := report.DailyPayouts(&pdf, daily); err != nil {
			return nil, fmt.Errorf("render payout report: %w", err)
		}
		msg := email.Message{
			From:    s.Cfg.EmailFrom,
			To:      s.Cfg.ManagerEmail,
			Subject: "Tip payouts for " + timesheet.DateLabel(daily.Date),
			Body:    PayoutSummary(daily),
			Attachments: []email.Attachment{{
				Filename:    "tips-" + daily.Date.Format("2006-01-02") + ".pdf",
				ContentType: "application/pdf",
				Data:        pdf.Bytes(),
			}},
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return nil, err
		}
		return map[string]any{"date": timesheet.DateLabel(daily.Date), "employees": len(daily.Payouts.ByEmployee)}, nil
	})
}

func PayoutSummary(daily timesheet.DailyTips) string {
	p := daily.Payouts
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s\n", timesheet.DateLabel(daily.Date))
	fmt.Fprintf(&b, "Tips collected: %s\n", p.TotalTips.StringFixed(2))
	fmt.Fprintf(&b, "Total hours: %s\n", p.TotalHours.StringFixed(2))
	fmt.Fprintf(&b, "Tip rate: %s per hour\n\n", p.TipRate.StringFixed(4))
	for _, name := range p.Employees() {
		fmt.Fprintf(&b, "%s: %s hours, %s\n", name, p.Hours[name].StringFixed(2), p.ByEmployee[name].StringFixed(2))
	}
	return b.String()
}
