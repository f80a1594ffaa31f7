package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/mrlokans/hotsearch-web/internal/auth"
	"github.com/mrlokans/hotsearch-web/internal/config"
	"github.com/mrlokans/hotsearch-web/internal/navigation"
	"github.com/mrlokans/hotsearch-web/internal/session"
	"github.com/mrlokans/hotsearch-web/internal/storage"
)

// Command is a subcommand of the binary: flags first, then Run.
type Command interface {
	ParseFlags(args []string) error
	Run() error
}

var (
	_ Command = (*LoginCommand)(nil)
	_ Command = (*RegisterCommand)(nil)
	_ Command = (*WhoamiCommand)(nil)
	_ Command = (*LogoutCommand)(nil)
	_ Command = (*GiteeLoginCommand)(nil)
	_ Command = (*TokenCommand)(nil)
)

// sessionFlags are shared by every command that talks to the backend or the
// persisted session.
type sessionFlags struct {
	APIURL       string
	DatabasePath string
	Profile      string
	Timeout      time.Duration

	encryptionKey string
	keyFilePath   string
}

func (f *sessionFlags) register(fs *flag.FlagSet) {
	cfg := config.NewConfig()
	fs.StringVar(&f.APIURL, "api", cfg.API.BaseURL, "Backend base URL (or set API_URL)")
	fs.StringVar(&f.DatabasePath, "db", cfg.Database.Path, "Path to the database holding the session")
	fs.StringVar(&f.Profile, "profile", cfg.Storage.Profile, "Session profile, for keeping several logins side by side")
	fs.DurationVar(&f.Timeout, "timeout", cfg.API.Timeout, "Backend request timeout")
	f.encryptionKey = cfg.Storage.EncryptionKey
	f.keyFilePath = cfg.Storage.KeyFilePath
}

// env is an opened session: persisted storage plus the auth facade on top.
type env struct {
	store   *storage.DBStore
	client  *session.Client
	service *auth.Service
	unsub   func()
}

func (f *sessionFlags) open(out io.Writer) (*env, error) {
	store, err := storage.NewDBStore(storage.DBConfig{
		DatabasePath:  f.DatabasePath,
		Profile:       f.Profile,
		EncryptionKey: f.encryptionKey,
		KeyFilePath:   f.keyFilePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	client := session.New(session.Config{BaseURL: f.APIURL, Timeout: f.Timeout}, store)
	unsub := client.Events().Subscribe(func(_ context.Context, evt session.Event) {
		if evt.Type == session.EventSessionInvalidated {
			fmt.Fprintf(out, "Session rejected by the server (%s %s). Log in again with: %s login\n",
				evt.Method, evt.Path, progName())
		}
	})

	return &env{
		store:   store,
		client:  client,
		service: auth.NewService(client, navigation.Printer{Out: out}),
		unsub:   unsub,
	}, nil
}

func (e *env) Close() error {
	e.unsub()
	return e.store.Close()
}

var errEmptyInput = errors.New("input cannot be empty")

// prompter reads answers from a terminal without echo for secrets, or line by
// line from a pipe.
type prompter struct {
	in  io.Reader
	r   *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: in, r: bufio.NewReader(in), out: out}
}

func (p *prompter) terminal() (int, bool) {
	f, ok := p.in.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errEmptyInput
	}
	return line, nil
}

func (p *prompter) secret(prompt string) (string, error) {
	fd, ok := p.terminal()
	if !ok {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(b) == 0 {
		return "", errEmptyInput
	}
	return string(b), nil
}

func progName() string {
	if len(os.Args) == 0 {
		return "hotsearch-web"
	}
	return os.Args[0]
}

func usage(fs *flag.FlagSet, synopsis string, lines ...string) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: %s %s [options]\n\n", progName(), fs.Name())
		fmt.Fprintf(w, "%s\n\n", synopsis)
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
		if len(lines) > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, "Options:")
		fs.PrintDefaults()
	}
}
