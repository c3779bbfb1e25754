package browser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func envFrom(env map[string]string) func(string) string {
	return func(key string) string { return env[key] }
}

func TestParseEngine(t *testing.T) {
	for _, name := range []string{"chromium", "Chromium", "FIREFOX", "webkit", " WebKit "} {
		_, ok := ParseEngine(name)
		assert.True(t, ok, name)
	}
	for _, name := range []string{"", "chrome", "safari", "edge"} {
		_, ok := ParseEngine(name)
		assert.False(t, ok, name)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		args     []string
		env      map[string]string
		want     Engine
	}{
		{name: "default", want: Chromium},
		{name: "explicit wins", explicit: "webkit", args: []string{"--project", "firefox"}, env: map[string]string{"BROWSER": "firefox"}, want: WebKit},
		{name: "explicit is case insensitive", explicit: "FireFox", want: Firefox},
		{name: "project flag", args: []string{"test", "--project", "webkit"}, env: map[string]string{"PLAYWRIGHT_PROJECT": "firefox"}, want: WebKit},
		{name: "project flag with equals", args: []string{"--project=firefox"}, want: Firefox},
		{name: "dangling project flag ignored", args: []string{"--project"}, env: map[string]string{"BROWSER": "webkit"}, want: WebKit},
		{name: "project env before browser env", env: map[string]string{"PLAYWRIGHT_PROJECT": "webkit", "BROWSER": "firefox"}, want: WebKit},
		{name: "npm project env", env: map[string]string{"npm_config_project": "firefox"}, want: Firefox},
		{name: "browser env", env: map[string]string{"BROWSER": "firefox"}, want: Firefox},
		{name: "browser env order", env: map[string]string{"PLAYWRIGHT_BROWSER": "webkit", "npm_config_browser": "firefox"}, want: WebKit},
		{name: "npm browser env", env: map[string]string{"npm_config_browser": "WEBKIT"}, want: WebKit},
		{name: "unknown explicit falls back", explicit: "netscape", env: map[string]string{"BROWSER": "firefox"}, want: Chromium},
		{name: "unknown env falls back", env: map[string]string{"BROWSER": "lynx"}, want: Chromium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.explicit, Inputs{Args: tt.args, Getenv: envFrom(tt.env)})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIsStable(t *testing.T) {
	in := Inputs{Getenv: envFrom(map[string]string{"BROWSER": "firefox"})}
	assert.Equal(t, Firefox, Resolve("", in))
	assert.Equal(t, Firefox, Resolve("", in))
}

func TestResolveWithProcessEnv(t *testing.T) {
	t.Setenv("PLAYWRIGHT_PROJECT", "")
	t.Setenv("npm_config_project", "")
	t.Setenv("BROWSER", "firefox")

	in := InputsFromProcess()
	in.Args = nil
	assert.Equal(t, Firefox, Resolve("", in))
}

func TestResolveNilGetenv(t *testing.T) {
	assert.Equal(t, Chromium, Resolve("", Inputs{}))
}

func TestRequestedName(t *testing.T) {
	assert.Equal(t, "", RequestedName("", Inputs{}))
	assert.Equal(t, "lynx", RequestedName("", Inputs{Getenv: envFrom(map[string]string{"BROWSER": "lynx"})}))
}

func TestStatePath(t *testing.T) {
	assert.Equal(t, filepath.Join("auth-states", "state-chromium.json"), StatePath("", Chromium))
	assert.Equal(t, filepath.Join("auth-states", "state-firefox.json"), StatePath(DefaultStateDir, Firefox))
	assert.Equal(t, filepath.Join("tmp", "state-webkit.json"), StatePath("tmp", WebKit))

	seen := map[string]Engine{}
	for _, e := range Engines {
		p := StatePath(DefaultStateDir, e)
		assert.Equal(t, p, StatePath(DefaultStateDir, e), "same engine, same path")
		_, dup := seen[p]
		assert.False(t, dup, "engines share %s", p)
		seen[p] = e
	}
}
