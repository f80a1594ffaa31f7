package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

const (
	DefaultCallbackPort = 8089
	DefaultCallbackWait = 5 * time.Minute
)

var ErrCallbackTimeout = errors.New("timeout waiting for the gitee callback")

// GiteeLoginCommand runs the external login: it prints the provider URL and
// waits on a local listener for the backend to redirect back with a token.
// With -token the listener is skipped and the given token is stored directly.
type GiteeLoginCommand struct {
	sessionFlags
	Port      int
	Wait      time.Duration
	Token     string
	AvatarURL string

	out io.Writer
}

func NewGiteeLoginCommand() *GiteeLoginCommand {
	return &GiteeLoginCommand{out: os.Stdout}
}

func (c *GiteeLoginCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("gitee-login", flag.ContinueOnError)
	c.sessionFlags.register(fs)
	fs.IntVar(&c.Port, "port", DefaultCallbackPort, "Local port receiving the callback")
	fs.DurationVar(&c.Wait, "wait", DefaultCallbackWait, "How long to wait for the callback")
	fs.StringVar(&c.Token, "token", "", "Store this token instead of waiting for a callback")
	fs.StringVar(&c.AvatarURL, "avatar-url", "", "Avatar URL to cache alongside -token")
	fs.Usage = usage(fs, "Log in through Gitee.",
		"The backend redirects to its configured frontend URL with ?token=...&avatar_url=...",
		"Point that URL at http://localhost:<port>/ to finish the login here, or copy the",
		"token from the browser address bar and pass it with -token.")
	return fs.Parse(args)
}

func (c *GiteeLoginCommand) Run() error {
	e, err := c.open(c.out)
	if err != nil {
		return err
	}
	defer e.Close()

	if c.Token != "" {
		return c.store(context.Background(), e, giteeCallback{Token: c.Token, AvatarURL: c.AvatarURL})
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", c.Port))
	if err != nil {
		return fmt.Errorf("port %d is not available: %w", c.Port, err)
	}

	reqCtx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	resp, err := e.service.GiteeLogin(reqCtx)
	cancel()
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to start gitee login: %w", err)
	}
	if resp.AuthURL == "" {
		_ = ln.Close()
		return fmt.Errorf("backend returned no auth_url: %s", resp.Raw)
	}

	fmt.Fprintf(c.out, "\nWaiting for the callback on http://%s/ ...\n", ln.Addr())
	cb, err := receiveCallback(context.Background(), ln, c.Wait)
	if err != nil {
		return err
	}
	return c.store(context.Background(), e, *cb)
}

func (c *GiteeLoginCommand) store(ctx context.Context, e *env, cb giteeCallback) error {
	if !e.service.HandleGiteeCallback(ctx, cb.Token, cb.AvatarURL) {
		return errors.New("gitee login did not produce a token")
	}
	fmt.Fprintf(c.out, "Logged in with Gitee (profile %q).\n", e.store.Profile())
	return nil
}

type giteeCallback struct {
	Token     string
	AvatarURL string
}

// receiveCallback serves ln until a request carrying a token or an error
// arrives, or until wait elapses. The listener is closed on return.
func receiveCallback(ctx context.Context, ln net.Listener, wait time.Duration) (*giteeCallback, error) {
	resultChan := make(chan giteeCallback, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")

		if errParam := query.Get("error"); errParam != "" {
			select {
			case errChan <- fmt.Errorf("gitee login failed: %s", errParam):
			default:
			}
			fmt.Fprintf(w, `<html><body><h1>Login failed</h1><p>%s</p><p>You can close this window.</p></body></html>`,
				html.EscapeString(errParam))
			return
		}

		token := query.Get("token")
		if token == "" {
			http.Error(w, "no token in callback", http.StatusBadRequest)
			return
		}

		select {
		case resultChan <- giteeCallback{Token: token, AvatarURL: query.Get("avatar_url")}:
		default:
		}
		fmt.Fprint(w, `<html><body><h1>Logged in</h1><p>You can close this window and return to the terminal.</p></body></html>`)
	})

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- fmt.Errorf("callback server error: %w", err):
			default:
			}
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	if wait <= 0 {
		wait = DefaultCallbackWait
	}
	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	select {
	case cb := <-resultChan:
		return &cb, nil
	case err := <-errChan:
		return nil, err
	case <-waitCtx.Done():
		return nil, ErrCallbackTimeout
	}
}
