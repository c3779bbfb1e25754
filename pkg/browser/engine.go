package browser

import (
	"os"
	"path/filepath"
	"strings"
)

// Engine names one of the supported playwright browser engines.
type Engine string

const (
	Chromium Engine = "chromium"
	Firefox  Engine = "firefox"
	WebKit   Engine = "webkit"
)

// DefaultEngine is used when nothing selects an engine, or the selection is unknown.
const DefaultEngine = Chromium

// Engines lists the supported engines; the first one is the default.
var Engines = []Engine{Chromium, Firefox, WebKit}

// DefaultStateDir is where session state files live, relative to the working directory.
const DefaultStateDir = "auth-states"

// projectFlag is the CLI flag whose value names the engine, as in `--project firefox`.
const projectFlag = "--project"

var (
	// projectEnvVars are checked before browserEnvVars.
	projectEnvVars = []string{"PLAYWRIGHT_PROJECT", "npm_config_project"}
	browserEnvVars = []string{"BROWSER", "PLAYWRIGHT_BROWSER", "npm_config_browser"}
)

// Inputs are the process-level sources an engine can be selected from.
type Inputs struct {
	// Args are the process arguments, scanned for --project.
	Args []string

	// Getenv returns an environment variable, empty when unset.
	Getenv func(string) string
}

// InputsFromProcess captures os.Args and the process environment.
func InputsFromProcess() Inputs {
	return Inputs{Args: os.Args, Getenv: os.Getenv}
}

// ParseEngine looks up a supported engine by name, ignoring case.
func ParseEngine(name string) (Engine, bool) {
	candidate := Engine(strings.ToLower(strings.TrimSpace(name)))
	for _, e := range Engines {
		if e == candidate {
			return e, true
		}
	}
	return "", false
}

// Resolve selects an engine. The first non-empty source wins: the explicit
// name, the value after --project in the arguments, the project variables,
// the browser variables, and finally the default. An unknown name resolves
// to DefaultEngine instead of failing.
func Resolve(explicit string, in Inputs) Engine {
	name := RequestedName(explicit, in)
	if e, ok := ParseEngine(name); ok {
		return e
	}
	return DefaultEngine
}

// RequestedName returns the raw name Resolve would look up, empty if no
// source names an engine.
func RequestedName(explicit string, in Inputs) string {
	if explicit != "" {
		return explicit
	}
	if v := projectArg(in.Args); v != "" {
		return v
	}
	if in.Getenv == nil {
		return ""
	}
	for _, key := range projectEnvVars {
		if v := in.Getenv(key); v != "" {
			return v
		}
	}
	for _, key := range browserEnvVars {
		if v := in.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func projectArg(args []string) string {
	for i, arg := range args {
		if arg == projectFlag && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, projectFlag+"="); ok {
			return v
		}
	}
	return ""
}

// StatePath returns the session state file for an engine inside dir.
func StatePath(dir string, e Engine) string {
	if dir == "" {
		dir = DefaultStateDir
	}
	return filepath.Join(dir, "state-"+string(e)+".json")
}
