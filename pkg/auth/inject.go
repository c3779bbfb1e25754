package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// initScriptTemplate exposes the token and a header builder to page scripts.
const initScriptTemplate = `(() => {
  const token = %s;
  window.__API_TOKEN__ = token;
  window.__getAuthHeaders = () => ({ Authorization: 'Bearer ' + token });
})();`

// InjectToken installs an init script into bctx that exposes the API token
// as window.__API_TOKEN__ and window.__getAuthHeaders() to every document
// loaded in the context, before any page script runs.
func (s *Session) InjectToken(ctx context.Context, bctx playwright.BrowserContext) error {
	tok, err := s.APIToken(ctx)
	if err != nil {
		return err
	}

	script, err := initScript(tok)
	if err != nil {
		return err
	}
	if err := bctx.AddInitScript(playwright.Script{Content: &script}); err != nil {
		return fmt.Errorf("failed to add token init script: %w", err)
	}
	return nil
}

func initScript(token string) (string, error) {
	// JSON string literals are valid JavaScript and escape <, > and &
	literal, err := json.Marshal(token)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(initScriptTemplate, literal), nil
}
