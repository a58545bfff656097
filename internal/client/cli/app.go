// Package cli implements the reelcli commands on top of the API client and
// the local session cache.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/reelbase/reelbase-api/internal/client/apiclient"
	"github.com/reelbase/reelbase-api/internal/client/session"
)

// ErrNotLoggedIn is returned by commands that need a cached session.
var ErrNotLoggedIn = errors.New("not logged in, run: reelcli login -email <address>")

const usage = `usage: reelcli <command> [flags]

commands:
  register -username <name> -email <address>
  login -email <address>
  logout
  whoami
  verify <token>
  resend
  update [-username <name>] [-email <address>] [-password]
  watchlist [list]
  watchlist add -type movie|tv -id <mediaId> -title <title> [-poster <path>]
  watchlist remove <mediaId>
`

// App wires the commands to their collaborators.
type App struct {
	Client *apiclient.Client
	Guard  *session.Guard
	Out    io.Writer
	Err    io.Writer

	// ReadPassword reads a secret without echo. Tests replace it.
	ReadPassword func() (string, error)

	current *session.Session
}

func NewApp(client *apiclient.Client, guard *session.Guard, out, errOut io.Writer) *App {
	return &App{
		Client:       client,
		Guard:        guard,
		Out:          out,
		Err:          errOut,
		ReadPassword: readTerminalPassword,
	}
}

func readTerminalPassword() (string, error) {
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Run validates the cached session, then dispatches args to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if s, ok := a.Guard.Load(); ok {
		a.current = s
	}
	if notice, ok := a.Guard.TakeNotice(); ok {
		fmt.Fprintln(a.Err, notice)
	}

	if len(args) == 0 {
		fmt.Fprint(a.Err, usage)
		return flag.ErrHelp
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "register":
		err = a.register(ctx, rest)
	case "login":
		err = a.login(ctx, rest)
	case "logout":
		err = a.logout()
	case "whoami":
		err = a.whoami(ctx)
	case "verify":
		err = a.verify(ctx, rest)
	case "resend":
		err = a.resend(ctx)
	case "update":
		err = a.update(ctx, rest)
	case "watchlist":
		err = a.watchlist(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.Out, usage)
		return nil
	default:
		fmt.Fprint(a.Err, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}

	if errors.Is(err, apiclient.ErrUnauthorized) && a.current != nil {
		// The server rejected a token the structural check accepted.
		_ = a.Guard.Logout()
		a.current = nil
		fmt.Fprintln(a.Err, session.ExpiredNotice)
	}
	return err
}

func (a *App) authed() (*apiclient.Client, error) {
	if a.current == nil {
		return nil, ErrNotLoggedIn
	}
	return a.Client.WithToken(a.current.Token), nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.Out, label)
	pw, err := a.ReadPassword()
	fmt.Fprintln(a.Out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(pw, "\r\n"), nil
}

func newFlagSet(name string, errOut io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

func (a *App) remember(acc *apiclient.Account) error {
	s := &session.Session{
		ID:           acc.ID,
		Username:     acc.Username,
		Email:        acc.Email,
		PendingEmail: acc.PendingEmail,
		Token:        acc.Token,
	}
	if acc.IsEmailVerified != nil {
		s.IsEmailVerified = *acc.IsEmailVerified
	}
	if err := a.Guard.Save(s); err != nil {
		return err
	}
	a.current = s
	return nil
}
