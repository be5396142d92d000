// Package browsertest provides a scripted in-memory browser.Driver.
// Tests stage elements per selector and hook navigation, script
// execution and drag gestures to play out whatever the portal would do.
package browsertest

import (
	"context"
	"sync"

	"gridwatch-backend/lib/browser"
)

type Fake struct {
	mu sync.Mutex

	url      string
	source   string
	elements map[string][]*Element

	// NavigateFunc, if set, replaces the default behavior of setting
	// the current URL to the navigation target.
	NavigateFunc func(url string)
	RefreshFunc  func()
	// ExecuteFunc handles script execution; unhandled scripts return "".
	ExecuteFunc func(script string, args ...any) (string, error)

	NavigateCalls []string
	RefreshCalls  int
	QuitCalls     int
}

func New() *Fake {
	return &Fake{elements: map[string][]*Element{}}
}

// Element is a scriptable DOM node.
type Element struct {
	fake *Fake

	TextValue string
	Hidden    bool
	// OnClick reacts to a click; it may restage elements through
	// Put/Remove (open a dropdown, swap a pane).
	OnClick func()
	// OnDrag receives the drag offsets; the CAPTCHA tests use it to
	// flip the current URL on the "correct" attempt.
	OnDrag func(dx, dy float64)

	Clicks int
	Keys   []string

	children map[string][]*Element
}

func (f *Fake) SetURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.url = url
}

func (f *Fake) SetSource(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = source
}

// Put stages elements under a selector, replacing whatever was there.
func (f *Fake) Put(selector string, els ...*Element) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, el := range els {
		el.fake = f
	}
	f.elements[selector] = els
}

func (f *Fake) Remove(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.elements, selector)
}

// Text stages a single visible element with the given text.
func Text(text string) *Element {
	return &Element{TextValue: text}
}

// WithChild attaches a nested element reachable via Element.Find.
func (e *Element) WithChild(selector string, child *Element) *Element {
	if e.children == nil {
		e.children = map[string][]*Element{}
	}
	e.children[selector] = append(e.children[selector], child)
	return e
}

// Navigate runs NavigateFunc outside the lock so hooks may restage
// elements through Put/Remove.
func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	f.NavigateCalls = append(f.NavigateCalls, url)
	fn := f.NavigateFunc
	if fn == nil {
		f.url = url
	}
	f.mu.Unlock()
	if fn != nil {
		fn(url)
	}
	return nil
}

// Refresh runs RefreshFunc outside the lock so hooks may restage
// elements through Put/Remove.
func (f *Fake) Refresh(ctx context.Context) error {
	f.mu.Lock()
	f.RefreshCalls++
	fn := f.RefreshFunc
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (f *Fake) Find(ctx context.Context, selector string) (browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.elements[selector]
	if len(els) == 0 {
		return nil, browser.ErrNotFound
	}
	return els[0], nil
}

func (f *Fake) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.elements[selector]
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (f *Fake) Execute(ctx context.Context, script string, args ...any) (string, error) {
	f.mu.Lock()
	fn := f.ExecuteFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(script, args...)
	}
	return "", nil
}

func (f *Fake) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *Fake) PageSource(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, nil
}

func (f *Fake) Quit(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QuitCalls++
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.TextValue, nil
}

// Click runs outside the fake's lock so OnClick hooks may restage
// elements through Put/Remove.
func (e *Element) Click(ctx context.Context) error {
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	e.Keys = append(e.Keys, text)
	return nil
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	return !e.Hidden, nil
}

func (e *Element) DragBy(ctx context.Context, dx, dy float64) error {
	if e.OnDrag != nil {
		e.OnDrag(dx, dy)
	}
	return nil
}

func (e *Element) Find(ctx context.Context, selector string) (browser.Element, error) {
	els := e.children[selector]
	if len(els) == 0 {
		return nil, browser.ErrNotFound
	}
	return els[0], nil
}

func (e *Element) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	els := e.children[selector]
	out := make([]browser.Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}
