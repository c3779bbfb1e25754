// Package browser selects and launches playwright browser engines.
//
// Engine selection is a pure function of an explicit name and the process
// inputs (arguments and environment), checked in this order:
//
//  1. the explicit name passed by the caller
//  2. the value following --project on the command line
//  3. PLAYWRIGHT_PROJECT, then npm_config_project
//  4. BROWSER, PLAYWRIGHT_BROWSER, then npm_config_browser
//  5. chromium
//
// Names are matched case-insensitively. A name that matches no supported
// engine selects chromium rather than failing.
//
// Each engine has its own session state file, see StatePath:
//
//	auth-states/state-chromium.json
//	auth-states/state-firefox.json
//	auth-states/state-webkit.json
package browser
