package app

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/browser"
)

// Opener shows a URL to the user, usually in a browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) error

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, url string) error { return f(ctx, url) }

// BrowserOpener hands the URL to the platform's default browser.
type BrowserOpener struct{}

// Open returns once the URL handler has accepted the URL. Handler output
// goes to stderr so stdout only carries command results.
func (BrowserOpener) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	browser.Stdout = os.Stderr
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}
