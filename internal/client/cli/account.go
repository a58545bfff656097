package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/reelbase/reelbase-api/internal/client/apiclient"
	"github.com/reelbase/reelbase-api/internal/client/session"
)

func (a *App) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register", a.Err)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		return errors.New("register: -username and -email are required")
	}

	password, err := a.prompt("Password: ")
	if err != nil {
		return err
	}
	acc, err := a.Client.Register(ctx, *username, *email, password)
	if err != nil {
		return err
	}
	if err := a.remember(acc); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, acc.Message)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login", a.Err)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}

	password, err := a.prompt("Password: ")
	if err != nil {
		return err
	}
	acc, err := a.Client.Login(ctx, *email, password)
	if err != nil {
		return err
	}
	if err := a.remember(acc); err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Logged in as %s\n", acc.Username)
	return nil
}

func (a *App) logout() error {
	if err := a.Guard.Logout(); err != nil {
		return err
	}
	a.current = nil
	fmt.Fprintln(a.Out, "Logged out")
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	c, err := a.authed()
	if err != nil {
		return err
	}
	p, err := c.Profile(ctx)
	if err != nil {
		return err
	}

	verified := p.IsEmailVerified
	patch := session.Patch{Username: &p.Username, Email: &p.Email, IsEmailVerified: &verified, PendingEmail: p.PendingEmail}
	if p.PendingEmail == nil {
		patch.ClearPending = true
	}
	if s, err := a.Guard.Update(patch); err == nil {
		a.current = s
	}

	fmt.Fprintf(a.Out, "%s <%s>\n", p.Username, p.Email)
	if !p.IsEmailVerified {
		fmt.Fprintln(a.Out, "email not verified")
	}
	if p.PendingEmail != nil {
		fmt.Fprintf(a.Out, "pending email change to %s\n", *p.PendingEmail)
	}
	fmt.Fprintf(a.Out, "%d title(s) on watchlist\n", len(p.Watchlist))
	return nil
}

// verify works without a session. A cached session for the same account is
// refreshed with the verified address and the new token; a session for a
// different account is replaced by one for the verified account.
func (a *App) verify(ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("verify: token argument is required")
	}
	v, err := a.Client.VerifyEmail(ctx, args[0])
	if err != nil {
		return err
	}

	if a.current != nil {
		subject, _ := session.TokenSubject(v.Token)
		if subject != "" && subject == a.current.ID {
			verified := true
			s, err := a.Guard.Update(session.Patch{
				Email:           &v.Email,
				IsEmailVerified: &verified,
				ClearPending:    true,
				Token:           &v.Token,
			})
			if err != nil {
				return err
			}
			a.current = s
		} else if err := a.switchAccount(ctx, subject, v); err != nil {
			return err
		}
	}
	fmt.Fprintln(a.Out, v.Message)
	return nil
}

// switchAccount caches a fresh session for the account a verification link
// belonged to. The username is filled in when the profile can be fetched.
func (a *App) switchAccount(ctx context.Context, userID string, v *apiclient.Verification) error {
	s := &session.Session{ID: userID, Email: v.Email, IsEmailVerified: true, Token: v.Token}
	if p, err := a.Client.WithToken(v.Token).Profile(ctx); err == nil {
		s.ID = p.ID
		s.Username = p.Username
		s.Email = p.Email
		s.IsEmailVerified = p.IsEmailVerified
		s.PendingEmail = p.PendingEmail
	}
	if err := a.Guard.Save(s); err != nil {
		return err
	}
	a.current = s
	fmt.Fprintf(a.Out, "Now signed in as %s\n", v.Email)
	return nil
}

func (a *App) resend(ctx context.Context) error {
	c, err := a.authed()
	if err != nil {
		return err
	}
	msg, err := c.ResendVerification(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.Out, msg)
	return nil
}

func (a *App) update(ctx context.Context, args []string) error {
	fs := newFlagSet("update", a.Err)
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email address, applied after verification")
	changePassword := fs.Bool("password", false, "prompt for a new password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := a.authed()
	if err != nil {
		return err
	}

	var changes apiclient.ProfileChanges
	if *username != "" {
		changes.Username = username
	}
	if *email != "" {
		changes.Email = email
	}
	if *changePassword {
		pw, err := a.prompt("New password: ")
		if err != nil {
			return err
		}
		changes.Password = &pw
	}
	if changes.Username == nil && changes.Email == nil && changes.Password == nil {
		return errors.New("update: nothing to change")
	}

	acc, err := c.UpdateProfile(ctx, changes)
	if err != nil {
		return err
	}

	patch := session.Patch{Username: &acc.Username, Email: &acc.Email, Token: &acc.Token, PendingEmail: acc.PendingEmail}
	s, err := a.Guard.Update(patch)
	if err != nil {
		return err
	}
	a.current = s
	fmt.Fprintln(a.Out, acc.Message)
	return nil
}
