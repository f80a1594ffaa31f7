package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

// RegisterCommand creates a backend account. It does not log in.
type RegisterCommand struct {
	sessionFlags
	Username string
	Email    string

	in  io.Reader
	out io.Writer
}

func NewRegisterCommand() *RegisterCommand {
	return &RegisterCommand{in: os.Stdin, out: os.Stdout}
}

func (c *RegisterCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.StringVar(&c.Username, "username", "", "Account username (required)")
	fs.StringVar(&c.Email, "email", "", "Account email (required)")
	fs.Usage = usage(fs, "Create an account on the backend.",
		"The password is prompted for twice; stdin is read when it is not a terminal.")
	return fs.Parse(args)
}

func (c *RegisterCommand) Run() error {
	if c.Username == "" || c.Email == "" {
		return errors.New("-username and -email are required")
	}

	p := newPrompter(c.in, c.out)
	password, err := p.secret("Password: ")
	if err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if _, ok := p.terminal(); ok {
		confirm, err := p.secret("Repeat password: ")
		if err != nil {
			return fmt.Errorf("password: %w", err)
		}
		if confirm != password {
			return errors.New("passwords do not match")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	raw, err := e.service.Register(ctx, c.Username, c.Email, password)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(c.out, "Account %q created.\n", c.Username)
	if len(raw) > 0 {
		fmt.Fprintf(c.out, "%s\n", raw)
	}
	fmt.Fprintf(c.out, "Log in with: %s login -username %s\n", progName(), c.Username)
	return nil
}
