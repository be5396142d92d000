// Package remote implements browser.Driver against a W3C WebDriver
// endpoint (geckodriver, chromedriver, or a selenium hub). Only the
// handful of commands the scrapers consume are implemented.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gridwatch-backend/lib/browser"
	"gridwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

const webElementKey = "element-6066-11e4-a52e-4f735466cecf"

type Options struct {
	// URL of the WebDriver endpoint, e.g. http://127.0.0.1:4444.
	URL string
	// Headless asks the browser for a headless window. On the intended
	// deployment target (a Raspberry Pi next to the meter) there is no
	// display to attach to.
	Headless bool
	// PageLoadTimeout bounds full page loads, default 30s.
	PageLoadTimeout time.Duration
}

type Driver struct {
	http      *resty.Client
	sessionId string
}

type wireError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func decodeValue(body []byte, out any) error {
	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return err
	}
	var werr wireError
	if err := json.Unmarshal(envelope.Value, &werr); err == nil && werr.Error != "" {
		if werr.Error == "no such element" {
			return browser.ErrNotFound
		}
		return fmt.Errorf("webdriver: %s: %s", werr.Error, werr.Message)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Value, out)
}

func New(ctx context.Context, opts Options) (*Driver, error) {
	client := resty.New()
	client.SetBaseURL(opts.URL)
	client.SetTimeout(time.Minute)
	telemetry.InstrumentResty(client, "browser/remote")

	pageLoad := opts.PageLoadTimeout
	if pageLoad <= 0 {
		pageLoad = 30 * time.Second
	}

	args := []string{"--window-size=1280,720"}
	if opts.Headless {
		args = append(args, "--headless")
	}
	res, err := client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"capabilities": map[string]any{
				"alwaysMatch": map[string]any{
					"moz:firefoxOptions": map[string]any{"args": args},
					"timeouts": map[string]any{
						"pageLoad": pageLoad.Milliseconds(),
						// rely on explicit waits only; an implicit wait
						// stacked under them produces unbounded stalls
						"implicit": 0,
					},
				},
			},
		}).
		Post("/session")
	if err != nil {
		return nil, err
	}

	var session struct {
		SessionId string `json:"sessionId"`
	}
	if err := decodeValue(res.Body(), &session); err != nil {
		return nil, err
	}
	if session.SessionId == "" {
		return nil, fmt.Errorf("webdriver: no session id in response")
	}

	return &Driver{http: client, sessionId: session.SessionId}, nil
}

func (d *Driver) path(parts ...any) string {
	p := fmt.Sprintf("/session/%s", d.sessionId)
	for _, part := range parts {
		p += fmt.Sprintf("/%v", part)
	}
	return p
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	res, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"url": url}).
		Post(d.path("url"))
	if err != nil {
		return err
	}
	return decodeValue(res.Body(), nil)
}

func (d *Driver) Refresh(ctx context.Context) error {
	res, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]any{}).
		Post(d.path("refresh"))
	if err != nil {
		return err
	}
	return decodeValue(res.Body(), nil)
}

func (d *Driver) findElement(ctx context.Context, base, selector string) (*Element, error) {
	res, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"using": "css selector", "value": selector}).
		Post(base + "/element")
	if err != nil {
		return nil, err
	}
	var ref map[string]string
	if err := decodeValue(res.Body(), &ref); err != nil {
		return nil, err
	}
	id := ref[webElementKey]
	if id == "" {
		return nil, browser.ErrNotFound
	}
	return &Element{driver: d, id: id}, nil
}

func (d *Driver) findElements(ctx context.Context, base, selector string) ([]browser.Element, error) {
	res, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"using": "css selector", "value": selector}).
		Post(base + "/elements")
	if err != nil {
		return nil, err
	}
	var refs []map[string]string
	if err := decodeValue(res.Body(), &refs); err != nil {
		return nil, err
	}
	els := make([]browser.Element, 0, len(refs))
	for _, ref := range refs {
		if id := ref[webElementKey]; id != "" {
			els = append(els, &Element{driver: d, id: id})
		}
	}
	return els, nil
}

func (d *Driver) Find(ctx context.Context, selector string) (browser.Element, error) {
	return d.findElement(ctx, d.path(), selector)
}

func (d *Driver) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return d.findElements(ctx, d.path(), selector)
}

func (d *Driver) Execute(ctx context.Context, script string, args ...any) (string, error) {
	wireArgs := make([]any, len(args))
	for i, arg := range args {
		if el, ok := arg.(*Element); ok {
			wireArgs[i] = map[string]string{webElementKey: el.id}
			continue
		}
		wireArgs[i] = arg
	}
	res, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"script": script, "args": wireArgs}).
		Post(d.path("execute", "sync"))
	if err != nil {
		return "", err
	}
	var value any
	if err := decodeValue(res.Body(), &value); err != nil {
		return "", err
	}
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		raw, err := json.Marshal(v)
		return string(raw), err
	}
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	res, err := d.http.R().SetContext(ctx).Get(d.path("url"))
	if err != nil {
		return "", err
	}
	var url string
	err = decodeValue(res.Body(), &url)
	return url, err
}

func (d *Driver) PageSource(ctx context.Context) (string, error) {
	res, err := d.http.R().SetContext(ctx).Get(d.path("source"))
	if err != nil {
		return "", err
	}
	var source string
	err = decodeValue(res.Body(), &source)
	return source, err
}

func (d *Driver) Quit(ctx context.Context) error {
	res, err := d.http.R().SetContext(ctx).Delete(d.path())
	if err != nil {
		return err
	}
	return decodeValue(res.Body(), nil)
}

type Element struct {
	driver *Driver
	id     string
}

func (e *Element) path(parts ...any) string {
	return e.driver.path(append([]any{"element", e.id}, parts...)...)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	res, err := e.driver.http.R().SetContext(ctx).Get(e.path("text"))
	if err != nil {
		return "", err
	}
	var text string
	err = decodeValue(res.Body(), &text)
	return text, err
}

// Click dispatches the click through script execution rather than the
// element click endpoint: the portal stacks invisible decorations over
// half its buttons and the endpoint refuses obscured targets.
func (e *Element) Click(ctx context.Context) error {
	_, err := e.driver.Execute(ctx, "arguments[0].click();", e)
	return err
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	res, err := e.driver.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(e.path("value"))
	if err != nil {
		return err
	}
	return decodeValue(res.Body(), nil)
}

func (e *Element) Displayed(ctx context.Context) (bool, error) {
	res, err := e.driver.http.R().SetContext(ctx).Get(e.path("displayed"))
	if err != nil {
		return false, err
	}
	var displayed bool
	err = decodeValue(res.Body(), &displayed)
	return displayed, err
}

func (e *Element) DragBy(ctx context.Context, dx, dy float64) error {
	actions := map[string]any{
		"actions": []any{
			map[string]any{
				"type": "pointer",
				"id":   "drag",
				"parameters": map[string]any{
					"pointerType": "mouse",
				},
				"actions": []any{
					map[string]any{
						"type": "pointerMove", "duration": 0,
						"origin": map[string]string{webElementKey: e.id},
						"x":      0, "y": 0,
					},
					map[string]any{"type": "pointerDown", "button": 0},
					map[string]any{
						"type": "pointerMove", "duration": 250,
						"origin": "pointer",
						"x":      int(dx), "y": int(dy),
					},
					map[string]any{"type": "pointerUp", "button": 0},
				},
			},
		},
	}
	res, err := e.driver.http.R().
		SetContext(ctx).
		SetBody(actions).
		Post(e.driver.path("actions"))
	if err != nil {
		return err
	}
	return decodeValue(res.Body(), nil)
}

func (e *Element) Find(ctx context.Context, selector string) (browser.Element, error) {
	return e.driver.findElement(ctx, e.path(), selector)
}

func (e *Element) FindAll(ctx context.Context, selector string) ([]browser.Element, error) {
	return e.driver.findElements(ctx, e.path(), selector)
}
