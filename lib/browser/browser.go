// Package browser defines the capability surface the scrapers consume
// from a browser-automation session. The scraping core never talks to a
// concrete webdriver; it drives whatever implements Driver, which keeps
// the portal logic testable against a scripted fake and lets the actual
// automation backend be swapped without touching scraping code.
package browser

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("element not found")

// Driver is one browsing session. Implementations are not safe for
// concurrent use; a session is owned by exactly one run at a time.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	// Find resolves a CSS selector to the first matching element,
	// ErrNotFound if nothing matches.
	Find(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
	// Execute runs a script in the page and returns its result
	// serialized to a string.
	Execute(ctx context.Context, script string, args ...any) (string, error)
	CurrentURL(ctx context.Context) (string, error)
	PageSource(ctx context.Context) (string, error)
	Quit(ctx context.Context) error
}

type Element interface {
	Text(ctx context.Context) (string, error)
	Click(ctx context.Context) error
	SendKeys(ctx context.Context, text string) error
	Displayed(ctx context.Context) (bool, error)
	// DragBy performs a pointer press, a relative move and a release,
	// all on this element. The CAPTCHA slider is the only consumer.
	DragBy(ctx context.Context, dx, dy float64) error
	Find(ctx context.Context, selector string) (Element, error)
	FindAll(ctx context.Context, selector string) ([]Element, error)
}
