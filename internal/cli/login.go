package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/hotsearch-web/internal/auth"
)

// LoginCommand exchanges a username and password for a stored session.
type LoginCommand struct {
	sessionFlags
	Username      string
	PasswordStdin bool

	in  io.Reader
	out io.Writer
}

func NewLoginCommand() *LoginCommand {
	return &LoginCommand{in: os.Stdin, out: os.Stdout}
}

func (c *LoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.StringVar(&c.Username, "username", "", "Account username (prompted if empty)")
	fs.BoolVar(&c.PasswordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	fs.Usage = usage(fs, "Log in against the backend and store the session locally.")
	return fs.Parse(args)
}

func (c *LoginCommand) Run() error {
	p := newPrompter(c.in, c.out)
	if c.Username == "" {
		u, err := p.line("Username: ")
		if err != nil {
			return fmt.Errorf("username: %w", err)
		}
		c.Username = u
	}

	prompt := "Password: "
	if c.PasswordStdin {
		prompt = ""
	}
	password, err := p.secret(prompt)
	if err != nil {
		return fmt.Errorf("password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	if _, err := e.service.Login(ctx, c.Username, password); err != nil {
		if errors.Is(err, auth.ErrProfileFetch) {
			fmt.Fprintf(c.out, "Logged in, but the profile could not be loaded: %v\n", err)
			return nil
		}
		return fmt.Errorf("login failed: %w", err)
	}

	profile, err := e.service.CachedUser(ctx)
	if err != nil || profile == nil {
		fmt.Fprintln(c.out, "Logged in.")
		return nil
	}
	fmt.Fprintf(c.out, "Logged in as %s (profile %q).\n", profile.DisplayName(), e.store.Profile())
	return nil
}
