package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// LoginSelectors locate the login form controls.
type LoginSelectors struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	Remember string `yaml:"remember" json:"remember"`
	Submit   string `yaml:"submit" json:"submit"`
}

// DefaultLoginSelectors returns the selectors of a conventional login form.
func DefaultLoginSelectors() LoginSelectors {
	return LoginSelectors{
		Username: "input[name='username']",
		Password: "input[name='password']",
		Remember: "input[name='remember']",
		Submit:   "button[type='submit']",
	}
}

// WithDefaults fills empty selectors from DefaultLoginSelectors.
func (s LoginSelectors) WithDefaults() LoginSelectors {
	d := DefaultLoginSelectors()
	if s.Username == "" {
		s.Username = d.Username
	}
	if s.Password == "" {
		s.Password = d.Password
	}
	if s.Remember == "" {
		s.Remember = d.Remember
	}
	if s.Submit == "" {
		s.Submit = d.Submit
	}
	return s
}

// LoginPage wraps the application's login form.
type LoginPage struct {
	page      playwright.Page
	baseURL   string
	selectors LoginSelectors
}

// NewLoginPage creates a login page object.
func NewLoginPage(page playwright.Page, baseURL string, selectors LoginSelectors) *LoginPage {
	return &LoginPage{
		page:      page,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		selectors: selectors.WithDefaults(),
	}
}

// URL returns the address of the login form.
func (p *LoginPage) URL() string {
	return p.baseURL + "/login"
}

// Goto opens the login form.
func (p *LoginPage) Goto() error {
	if _, err := p.page.Goto(p.URL()); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", p.URL(), err)
	}
	return nil
}

// Login opens the form, fills in the credentials, ticks "remember me" and submits.
func (p *LoginPage) Login(userName, password string) error {
	if err := p.Goto(); err != nil {
		return err
	}
	if err := p.page.Locator(p.selectors.Username).Fill(userName); err != nil {
		return fmt.Errorf("fill username failed: %w", err)
	}
	if err := p.page.Locator(p.selectors.Password).Fill(password); err != nil {
		return fmt.Errorf("fill password failed: %w", err)
	}
	if err := p.page.Locator(p.selectors.Remember).Check(); err != nil {
		return fmt.Errorf("check remember me failed: %w", err)
	}
	if err := p.page.Locator(p.selectors.Submit).Click(); err != nil {
		return fmt.Errorf("click login failed: %w", err)
	}
	return nil
}
