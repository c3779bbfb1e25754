// Package pages holds the page objects used by UI tests. Page objects only
// delegate to playwright; they carry no logic of their own.
package pages

import "github.com/playwright-community/playwright-go"

// Registry holds one instance of every page object, built eagerly for a single page.
type Registry struct {
	login *LoginPage
	home  *HomePage
}

// NewRegistry constructs every page object for the given page.
func NewRegistry(page playwright.Page, baseURL string, selectors LoginSelectors) *Registry {
	return &Registry{
		login: NewLoginPage(page, baseURL, selectors),
		home:  NewHomePage(page, baseURL),
	}
}

// Login returns the login page object.
func (r *Registry) Login() *LoginPage {
	return r.login
}

// Home returns the home page object.
func (r *Registry) Home() *HomePage {
	return r.home
}
