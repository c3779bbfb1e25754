// Package browsertest provides in-memory stand-ins for playwright browsers,
// contexts, pages and locators. Each fake embeds the playwright interface it
// replaces and overrides only the methods the harness calls; anything else
// panics on the nil embedded value.
package browsertest

import (
	"fmt"
	"os"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Aliases keep the embedded field names off the interfaces' method sets;
// playwright.Locator has a Locator method that a field named Locator would hide.
type (
	pwBrowser        = playwright.Browser
	pwBrowserContext = playwright.BrowserContext
	pwPage           = playwright.Page
	pwLocator        = playwright.Locator
)

// Interface checks.
var (
	_ playwright.Browser        = (*Browser)(nil)
	_ playwright.BrowserContext = (*Context)(nil)
	_ playwright.Page           = (*Page)(nil)
	_ playwright.Locator        = (*Locator)(nil)
)

// Recorder collects the calls made against a tree of fakes, in order.
type Recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *Recorder) record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// Count returns how often call was recorded.
func (r *Recorder) Count(call string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Browser fakes playwright.Browser.
type Browser struct {
	pwBrowser

	Rec     *Recorder
	Context *Context

	NewContextErr error
	CloseErr      error

	// ContextOptions are the options of the last NewContext call
	ContextOptions playwright.BrowserNewContextOptions
	Closed         bool
}

// NewBrowser builds a browser whose NewContext returns a context holding a
// single page, all reporting to the same recorder.
func NewBrowser() *Browser {
	rec := &Recorder{}
	page := &Page{Rec: rec, Fail: map[string]error{}, CurrentURL: "about:blank"}
	return &Browser{
		Rec:     rec,
		Context: &Context{Rec: rec, Page: page},
	}
}

func (b *Browser) NewContext(options ...playwright.BrowserNewContextOptions) (playwright.BrowserContext, error) {
	b.Rec.record("browser.newContext")
	if len(options) > 0 {
		b.ContextOptions = options[0]
	}
	if b.NewContextErr != nil {
		return nil, b.NewContextErr
	}
	return b.Context, nil
}

func (b *Browser) Close(options ...playwright.BrowserCloseOptions) error {
	b.Rec.record("browser.close")
	b.Closed = true
	return b.CloseErr
}

// Context fakes playwright.BrowserContext.
type Context struct {
	pwBrowserContext

	Rec  *Recorder
	Page *Page

	NewPageErr      error
	StorageStateErr error
	InitScriptErr   error
	CloseErr        error

	InitScripts []string
	Closed      bool
}

func (c *Context) NewPage() (playwright.Page, error) {
	c.Rec.record("context.newPage")
	if c.NewPageErr != nil {
		return nil, c.NewPageErr
	}
	return c.Page, nil
}

// StorageState writes a minimal state document to the given path.
func (c *Context) StorageState(path ...string) (*playwright.StorageState, error) {
	c.Rec.record("context.storageState")
	if c.StorageStateErr != nil {
		return nil, c.StorageStateErr
	}
	if len(path) > 0 && path[0] != "" {
		if err := os.WriteFile(path[0], []byte(`{"cookies":[],"origins":[]}`), 0o600); err != nil {
			return nil, err
		}
	}
	return &playwright.StorageState{}, nil
}

func (c *Context) AddInitScript(script playwright.Script) error {
	c.Rec.record("context.addInitScript")
	if c.InitScriptErr != nil {
		return c.InitScriptErr
	}
	if script.Content != nil {
		c.InitScripts = append(c.InitScripts, *script.Content)
	}
	return nil
}

func (c *Context) Close(options ...playwright.BrowserContextCloseOptions) error {
	c.Rec.record("context.close")
	c.Closed = true
	return c.CloseErr
}

// Page fakes playwright.Page.
type Page struct {
	pwPage

	Rec *Recorder

	// Fail maps a call such as "goto", "fill <selector>", "check <selector>",
	// "click <selector>" or "wait networkidle" to the error it returns.
	Fail map[string]error

	CurrentURL string
	PageTitle  string
}

func (p *Page) fail(call string) error {
	if p.Fail == nil {
		return nil
	}
	return p.Fail[call]
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.Rec.record("page.goto %s", url)
	if err := p.fail("goto"); err != nil {
		return nil, err
	}
	p.CurrentURL = url
	return nil, nil
}

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return &Locator{page: p, selector: selector}
}

func (p *Page) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	state := "load"
	if len(options) > 0 && options[0].State != nil {
		state = string(*options[0].State)
	}
	p.Rec.record("page.wait %s", state)
	return p.fail("wait " + state)
}

func (p *Page) Title() (string, error) {
	return p.PageTitle, nil
}

func (p *Page) URL() string {
	return p.CurrentURL
}

func (p *Page) Close(options ...playwright.PageCloseOptions) error {
	p.Rec.record("page.close")
	return nil
}

// Locator fakes playwright.Locator for a selector on a fake page.
type Locator struct {
	pwLocator

	page     *Page
	selector string
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	l.page.Rec.record("fill %s %s", l.selector, value)
	return l.page.fail("fill " + l.selector)
}

func (l *Locator) Check(options ...playwright.LocatorCheckOptions) error {
	l.page.Rec.record("check %s", l.selector)
	return l.page.fail("check " + l.selector)
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	l.page.Rec.record("click %s", l.selector)
	return l.page.fail("click " + l.selector)
}
