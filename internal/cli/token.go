package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCommand prints the stored token. JWT claims are decoded for display
// only; the signature is not verified.
type TokenCommand struct {
	sessionFlags
	Raw bool

	out io.Writer
}

func NewTokenCommand() *TokenCommand {
	return &TokenCommand{out: os.Stdout}
}

func (c *TokenCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.BoolVar(&c.Raw, "raw", false, "Print only the token, for use in scripts")
	fs.Usage = usage(fs, "Show the stored access token.")
	return fs.Parse(args)
}

func (c *TokenCommand) Run() error {
	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	token, err := e.service.Token(context.Background())
	if err != nil {
		return err
	}
	if token == "" {
		return ErrNotLoggedIn
	}

	if c.Raw {
		fmt.Fprintln(c.out, token)
		return nil
	}

	fmt.Fprintf(c.out, "Token: %s\n", token)

	claims, err := decodeClaims(token)
	if err != nil {
		fmt.Fprintln(c.out, "(not a JWT)")
		return nil
	}
	printClaims(c.out, claims, time.Now())
	return nil
}

func decodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func printClaims(w io.Writer, claims jwt.MapClaims, now time.Time) {
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(w, "  %-8s %v\n", k+":", claims[k])
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	if exp.Before(now) {
		fmt.Fprintf(w, "Expired %s ago (%s)\n", now.Sub(exp.Time).Round(time.Second), exp.UTC().Format(time.RFC3339))
		return
	}
	fmt.Fprintf(w, "Expires in %s (%s)\n", exp.Sub(now).Round(time.Second), exp.UTC().Format(time.RFC3339))
}
