package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
)

// LogoutCommand forgets the stored session. The backend is not contacted.
type LogoutCommand struct {
	sessionFlags

	out io.Writer
}

func NewLogoutCommand() *LogoutCommand {
	return &LogoutCommand{out: os.Stdout}
}

func (c *LogoutCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.Usage = usage(fs, "Remove the stored token and cached profile.")
	return fs.Parse(args)
}

func (c *LogoutCommand) Run() error {
	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.service.Logout(context.Background()); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	fmt.Fprintf(c.out, "Logged out of profile %q.\n", e.store.Profile())
	return nil
}
