package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
	err   error
}

func (f *fakeExec) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Signup(context.Context) error { return f.record("signup") }
func (f *fakeExec) Users(context.Context) error { return f.record("users") }
func (f *fakeExec) LogSession(context.Context) error { return f.record("log") }
func (f *fakeExec) Dashboard(context.Context) error { return f.record("dashboard") }
func (f *fakeExec) Weaknesses(context.Context) error { return f.record("weaknesses") }
func (f *fakeExec) Backup(context.Context) error { return f.record("backup") }
func (f *fakeExec) DeleteAccount(context.Context) error { return f.record("delete") }

func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func (f *fakeExec) Report(_ context.Context, args []string) error {
	f.args = append(f.args, args)
	return f.record("report")
}

func (f *fakeExec) Export(_ context.Context, args []string) error {
	f.args = append(f.args, args)
	return f.record("export")
}

func silenceOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		for _, v := range a {
			if s, ok := v.(string); ok {
				lines = append(lines, s)
			}
		}
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func script(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

func TestRunREPL_GuestThenUser(t *testing.T) {
	silenceOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, script(
		"help",
		"dashboard", // not available before login
		"users",
		"login",
		"LOG",
		"d",
		"report 7d pdf",
		"export xlsx",
		"weaknesses",
		"backup",
		"",
		"logout",
		"backup", // not available after logout
		"exit",
		"users", // never reached
	))

	want := []string{"users", "login", "log", "dashboard", "report", "export", "weaknesses", "backup", "logout"}
	assert.Equal(t, want, exec.calls)
	assert.Equal(t, [][]string{{"7d", "pdf"}, {"xlsx"}}, exec.args)
}

func TestRunREPL_HelpDependsOnLogin(t *testing.T) {
	out := silenceOutput(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "guest" }, script("help", "quit"))
	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, "Bye!")

	*out = nil
	runREPL(context.Background(), &fakeExec{loggedIn: true}, func() string { return "alice" }, script("help", "quit"))
	assert.Contains(t, *out, helpLoggedIn)
	assert.Contains(t, *out, "elevate [alice]> ")
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	out := silenceOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, script("dance"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, strings.Join(*out, "\n"), `Unknown command "dance"`)
}

func TestRunREPL_StopsWhenInputClosesMidCommand(t *testing.T) {
	silenceOutput(t)

	exec := &fakeExec{err: ErrInputClosed}
	runREPL(context.Background(), exec, func() string { return "s" }, script("signup", "users"))

	assert.Equal(t, []string{"signup"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	silenceOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, script("users"))
	assert.Empty(t, exec.calls)
}
