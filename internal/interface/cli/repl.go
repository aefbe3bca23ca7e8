package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies it.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Users(ctx context.Context) error
	LogSession(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Report(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Weaknesses(ctx context.Context) error
	Backup(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Logout(ctx context.Context) error
}

const (
	helpLoggedOut = `Available commands:
  signup              create an account
  login               log in
  users               list registered users
  help                show this list
  exit | quit         leave the program`

	helpLoggedIn = `Available commands:
  log                 record a study session
  dashboard | d       show totals, streak and level
  report [period] [pdf]
                      period is 7d, 30d (default), 90d or all; pdf writes a file
  export [csv|xlsx]   write all sessions to a file (csv by default)
  weaknesses          find chapters that need review
  backup              store a timestamped copy of your sessions
  delete              delete your account and all sessions
  logout              log out
  help                show this list
  exit | quit         leave the program`
)

// runREPL reads commands line by line and dispatches them to a until the
// input ends, the context is cancelled, or the user types exit or quit.
//
// The prompt shows statusFn(). Command errors are reported by the commands
// themselves; the loop only stops when the input is closed.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("elevate [%s]> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if cmd == "help" {
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}
			continue
		}

		if a.isLoggedIn() {
			err = dispatchUser(ctx, a, cmd, args)
		} else {
			err = dispatchGuest(ctx, a, cmd)
		}
		if errors.Is(err, ErrInputClosed) {
			return
		}
	}
}

func dispatchGuest(ctx context.Context, a execIface, cmd string) error {
	switch cmd {
	case "signup", "register":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	case "users":
		return a.Users(ctx)
	default:
		printlnFn(fmt.Sprintf("Unknown command %q. Log in first or type 'help'.", cmd))
		return nil
	}
}

func dispatchUser(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "log":
		return a.LogSession(ctx)
	case "dashboard", "d":
		return a.Dashboard(ctx)
	case "report":
		return a.Report(ctx, args)
	case "export":
		return a.Export(ctx, args)
	case "weaknesses":
		return a.Weaknesses(ctx)
	case "backup":
		return a.Backup(ctx)
	case "delete":
		return a.DeleteAccount(ctx)
	case "logout":
		return a.Logout(ctx)
	default:
		printlnFn(fmt.Sprintf("Unknown command %q. Type 'help' for the list.", cmd))
		return nil
	}
}
