package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// HomePage wraps the landing page shown after login.
type HomePage struct {
	page    playwright.Page
	baseURL string
}

// NewHomePage creates a home page object.
func NewHomePage(page playwright.Page, baseURL string) *HomePage {
	return &HomePage{
		page:    page,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Goto opens the home page and waits until the network is idle.
func (p *HomePage) Goto() error {
	if _, err := p.page.Goto(p.baseURL+"/", playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
	}); err != nil {
		return fmt.Errorf("navigation to home failed: %w", err)
	}
	return nil
}

// Title returns the document title.
func (p *HomePage) Title() (string, error) {
	return p.page.Title()
}

// OnLoginPage reports whether the browser got bounced to the login form,
// which is how an expired session state shows up.
func (p *HomePage) OnLoginPage() bool {
	return strings.HasPrefix(p.page.URL(), p.baseURL+"/login")
}
