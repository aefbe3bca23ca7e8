// Package cli is the interactive terminal front end. A line-oriented REPL
// reads commands, prompts for their input and drives the application use
// cases.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/elevate-hub/elevate/internal/application/command"
	"github.com/elevate-hub/elevate/internal/application/query"
	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/pdf"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// Handlers groups the use cases the terminal can run.
type Handlers struct {
	Signup        *command.SignupHandler
	Login         *command.LoginHandler
	LogSession    *command.LogSessionHandler
	DeleteAccount *command.DeleteAccountHandler
	Backup        *command.BackupHandler

	Dashboard  *query.GetDashboardHandler
	Report     *query.GetReportHandler
	Export     *query.ExportSessionsHandler
	Weaknesses *query.AnalyzeWeaknessesHandler
	Users      *query.ListUsersHandler
}

// Options configures an App. Zero values fall back to stdin, stdout, the
// working directory, a discarding logger and the system clock.
type Options struct {
	In        io.Reader
	Out       io.Writer
	OutputDir string
	Logger    *logger.Logger
	Clock     timeutil.Clock
}

// App holds the terminal session state: who is logged in and where I/O goes.
type App struct {
	h         Handlers
	user      string
	reader    *bufio.Reader
	out       io.Writer
	outputDir string
	log       *logger.Logger
	clock     timeutil.Clock
}

// NewApp creates an App.
func NewApp(h Handlers, opts Options) *App {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.SystemClock{}
	}
	return &App{
		h:         h,
		reader:    bufio.NewReader(opts.In),
		out:       opts.Out,
		outputDir: opts.OutputDir,
		log:       opts.Logger.With(logger.Component("cli")),
		clock:     opts.Clock,
	}
}

// Run prints a greeting and serves commands until the input ends or the
// user exits.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to Elevate, your study tracker. Type 'help' for commands.")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool { return a.user != "" }

func (a *App) status() string {
	if a.user == "" {
		return "guest"
	}
	return a.user
}

// begin scopes a command: a fresh request id and the operation name travel
// with the context logger.
func (a *App) begin(ctx context.Context, op string) context.Context {
	log := a.log.WithRequestID(uuid.NewString()).With(logger.Operation(op))
	if a.user != "" {
		log = log.With(logger.Username(a.user))
	}
	return logger.WithContext(ctx, log)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail reports err to the user and returns it. Input errors pass through
// untouched so the REPL can stop.
func (a *App) fail(ctx context.Context, err error, fallback string) error {
	if errors.Is(err, ErrInputClosed) {
		return err
	}
	if !shared.IsValidation(err) && !shared.IsUnauthorized(err) && !shared.IsAlreadyExists(err) && !shared.IsNotFound(err) {
		logger.FromContext(ctx).Error(fallback, logger.Err(err))
	}
	a.printf("Error: %s\n", shared.UserMessage(err, fallback))
	return err
}

// writeOutput stores data under the output directory and returns the path.
func (a *App) writeOutput(name string, data []byte) (string, error) {
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(a.outputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Account commands
// ═══════════════════════════════════════════════════════════════════════════

// Signup asks for a username and a confirmed password.
func (a *App) Signup(ctx context.Context) error {
	ctx = a.begin(ctx, "signup")

	username, err := GetSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password: ", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.reader, "Confirm password: ", a.out)
	if err != nil {
		return err
	}

	res, err := a.h.Signup.Handle(ctx, command.SignupCommand{
		Username:        username,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return a.fail(ctx, err, "signup failed")
	}
	a.printf("Account %s created. Type 'login' to start.\n", res.Username)
	return nil
}

// Login authenticates and shows the dashboard.
func (a *App) Login(ctx context.Context) error {
	ctx = a.begin(ctx, "login")

	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, "Password: ", a.out)
	if err != nil {
		return err
	}

	res, err := a.h.Login.Handle(ctx, command.LoginCommand{Username: username, Password: password})
	if err != nil {
		return a.fail(ctx, err, "login failed")
	}
	a.user = res.Username.String()
	a.printf("Welcome back, %s!\n", a.user)
	return a.Dashboard(ctx)
}

// Logout forgets the current user.
func (a *App) Logout(ctx context.Context) error {
	logger.FromContext(a.begin(ctx, "logout")).Info("logged out")
	a.printf("Goodbye, %s.\n", a.user)
	a.user = ""
	return nil
}

// Users lists registered usernames.
func (a *App) Users(ctx context.Context) error {
	ctx = a.begin(ctx, "users")

	names, err := a.h.Users.Handle(ctx)
	if err != nil {
		return a.fail(ctx, err, "could not list users")
	}
	if len(names) == 0 {
		a.printf("No users registered yet.\n")
		return nil
	}
	a.printf("Registered users:\n")
	for _, n := range names {
		a.printf("  %s\n", n)
	}
	return nil
}

// DeleteAccount removes the account and every session after the password
// is re-entered.
func (a *App) DeleteAccount(ctx context.Context) error {
	ctx = a.begin(ctx, "delete_account")

	a.printf("This permanently deletes your account and all study sessions.\n")
	password, err := GetPassword(a.reader, "Password to confirm: ", a.out)
	if err != nil {
		return err
	}

	err = a.h.DeleteAccount.Handle(ctx, command.DeleteAccountCommand{Username: a.user, Password: password})
	if err != nil {
		return a.fail(ctx, err, "account deletion failed")
	}
	a.printf("Account %s deleted.\n", a.user)
	a.user = ""
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Study commands
// ═══════════════════════════════════════════════════════════════════════════

// LogSession prompts for the session form and logs it.
func (a *App) LogSession(ctx context.Context) error {
	ctx = a.begin(ctx, "log_session")
	today := timeutil.Today(a.clock)

	var cmd command.LogSessionCommand
	cmd.Username = a.user

	for {
		raw, err := GetSimpleText(a.reader, fmt.Sprintf("Date (YYYY-MM-DD) [%s]", timeutil.FormatDateStr(today)), a.out)
		if err != nil {
			return err
		}
		if raw == "" {
			cmd.Date = today
			break
		}
		if cmd.Date, err = timeutil.ParseDate(raw); err == nil {
			break
		}
		a.printf("%q is not a date.\n", raw)
	}

	var err error
	if cmd.Subject, err = GetRequiredText(a.reader, "Subject", a.out); err != nil {
		return err
	}
	if cmd.Chapter, err = GetRequiredText(a.reader, "Chapter", a.out); err != nil {
		return err
	}
	if cmd.DurationMinutes, err = GetInt(a.reader, "Duration in minutes", 30, a.out); err != nil {
		return err
	}
	if cmd.Confidence, err = GetInt(a.reader, "Confidence 1-5", 3, a.out); err != nil {
		return err
	}
	if cmd.Notes, err = GetSimpleText(a.reader, "Notes (optional)", a.out); err != nil {
		return err
	}

	res, err := a.h.LogSession.Handle(ctx, cmd)
	if err != nil {
		return a.fail(ctx, err, "could not log the session")
	}
	a.printf("%s", FormatLogResult(res))
	return nil
}

// Dashboard shows today's dashboard.
func (a *App) Dashboard(ctx context.Context) error {
	ctx = a.begin(ctx, "dashboard")

	dto, err := a.h.Dashboard.Handle(ctx, query.GetDashboardQuery{Username: a.user})
	if err != nil {
		return a.fail(ctx, err, "could not build the dashboard")
	}
	a.printf("%s", FormatDashboard(dto))
	return nil
}

// Report prints period statistics. Arguments: an optional period and the
// word "pdf" to also write the document.
func (a *App) Report(ctx context.Context, args []string) error {
	ctx = a.begin(ctx, "report")

	q := query.GetReportQuery{Username: a.user, Period: report.PeriodLast30Days}
	for _, arg := range args {
		if strings.EqualFold(arg, "pdf") {
			q.RenderPDF = true
			continue
		}
		p, err := report.ParsePeriod(arg)
		if err != nil {
			return a.fail(ctx, err, "unknown report period")
		}
		q.Period = p
	}

	dto, err := a.h.Report.Handle(ctx, q)
	if err != nil {
		return a.fail(ctx, err, "could not generate the report")
	}
	a.printf("%s", FormatReport(dto))

	if dto.PDF != nil {
		path, err := a.writeOutput(pdf.FileName(a.user, dto.Period), dto.PDF)
		if err != nil {
			return a.fail(ctx, err, "could not save the PDF report")
		}
		a.printf("PDF report saved to %s\n", path)
	}
	return nil
}

// Export writes every session to a CSV or XLSX file.
func (a *App) Export(ctx context.Context, args []string) error {
	ctx = a.begin(ctx, "export")

	format := query.FormatCSV
	if len(args) > 0 {
		f, err := query.ParseExportFormat(args[0])
		if err != nil {
			return a.fail(ctx, err, "unknown export format")
		}
		format = f
	}

	dto, err := a.h.Export.Handle(ctx, query.ExportSessionsQuery{Username: a.user, Format: format})
	if err != nil {
		return a.fail(ctx, err, "export failed")
	}
	path, err := a.writeOutput(dto.FileName, dto.Data)
	if err != nil {
		return a.fail(ctx, err, "could not save the export")
	}
	a.printf("Exported %d sessions to %s\n", dto.SessionCount, path)
	return nil
}

// Weaknesses runs the weakness analysis over the whole history.
func (a *App) Weaknesses(ctx context.Context) error {
	ctx = a.begin(ctx, "weaknesses")

	analysis, err := a.h.Weaknesses.Handle(ctx, query.AnalyzeWeaknessesQuery{Username: a.user})
	if errors.Is(err, shared.ErrInsufficientSessions) {
		a.printf("Log at least %d sessions to get a weakness analysis.\n", report.MinWeaknessSessions)
		return nil
	}
	if err != nil {
		return a.fail(ctx, err, "weakness analysis failed")
	}
	a.printf("%s", FormatWeaknesses(analysis))
	return nil
}

// Backup stores a timestamped copy of the session history.
func (a *App) Backup(ctx context.Context) error {
	ctx = a.begin(ctx, "backup")

	res, err := a.h.Backup.Handle(ctx, command.BackupCommand{Username: a.user})
	if err != nil {
		return a.fail(ctx, err, "backup failed")
	}
	a.printf("Backed up %d sessions to %s\n", res.SessionCount, res.Location)
	return nil
}
