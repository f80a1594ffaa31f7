// Package navigation turns "go to this URL" side effects into something the
// caller owns: an HTTP redirect for the web server, a printed hint for the CLI.
package navigation

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Navigator performs a full-page navigation to target.
type Navigator interface {
	Navigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string)

func (f NavigatorFunc) Navigate(ctx context.Context, target string) { f(ctx, target) }

var (
	_ Navigator = NavigatorFunc(nil)
	_ Navigator = Recorder{}
	_ Navigator = Printer{}
)

type pendingKey struct{}

type pending struct {
	mu     sync.Mutex
	target string
}

// WithPending returns a context able to record a navigation target.
func WithPending(ctx context.Context) context.Context {
	return context.WithValue(ctx, pendingKey{}, &pending{})
}

// PendingTarget returns the last recorded target, if any.
func PendingTarget(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(pendingKey{}).(*pending)
	if !ok {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target, p.target != ""
}

// Recorder stores the target in the context prepared by WithPending.
// Contexts without a slot are ignored.
type Recorder struct{}

func (Recorder) Navigate(ctx context.Context, target string) {
	p, ok := ctx.Value(pendingKey{}).(*pending)
	if !ok {
		return
	}
	p.mu.Lock()
	p.target = target
	p.mu.Unlock()
}

// Printer asks a human to open the target.
type Printer struct {
	Out io.Writer
}

func (p Printer) Navigate(_ context.Context, target string) {
	fmt.Fprintf(p.Out, "\nOpen this URL in your browser:\n\n%s\n", target)
}
