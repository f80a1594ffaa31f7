package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

var ErrNotLoggedIn = errors.New("not logged in")

// WhoamiCommand shows the cached profile, or the live one with -remote.
type WhoamiCommand struct {
	sessionFlags
	Remote bool

	out io.Writer
}

func NewWhoamiCommand() *WhoamiCommand {
	return &WhoamiCommand{out: os.Stdout}
}

func (c *WhoamiCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.BoolVar(&c.Remote, "remote", false, "Ask the backend instead of reading the cached profile")
	fs.Usage = usage(fs, "Show the logged-in user.")
	return fs.Parse(args)
}

func (c *WhoamiCommand) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	if !e.service.IsAuthenticated(ctx) {
		return ErrNotLoggedIn
	}

	if c.Remote {
		raw, err := e.service.CurrentUser(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch current user: %w", err)
		}
		return printJSON(c.out, raw)
	}

	profile, err := e.service.CachedUser(ctx)
	if err != nil {
		return err
	}
	if profile == nil {
		fmt.Fprintln(c.out, "Logged in, no cached profile. Try -remote.")
		return nil
	}

	fmt.Fprintf(c.out, "User:    %s\n", profile.DisplayName())
	if profile.Email != "" {
		fmt.Fprintf(c.out, "Email:   %s\n", profile.Email)
	}
	if profile.LoginType != "" {
		fmt.Fprintf(c.out, "Login:   %s\n", profile.LoginType)
	}
	if profile.AvatarURL != "" {
		fmt.Fprintf(c.out, "Avatar:  %s\n", profile.AvatarURL)
	}
	fmt.Fprintf(c.out, "Profile: %s\n", e.store.Profile())
	return nil
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
