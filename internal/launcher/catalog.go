// Package launcher resolves spoken "open" targets to local applications
// or websites and starts them.
package launcher

import (
	"fmt"
	"runtime"
	"strings"
)

// App is a launchable local application.
type App struct {
	Name    string
	Command []string
}

// Site maps a spoken alias to a URL.
type Site struct {
	Alias string
	URL   string
}

// DefaultURLTemplate synthesizes a URL for an unknown target.
const DefaultURLTemplate = "https://www.%s.com"

// Catalog is the read-only set of known applications and websites.
// App order matters: the first application clearing Threshold wins.
type Catalog struct {
	Apps        []App
	Sites       []Site
	URLTemplate string
}

// Resolution is the outcome of Resolve. Exactly one of App or URL is set.
type Resolution struct {
	App   *App
	URL   string
	Score int
}

// Resolve picks what to open for target: the first application whose
// name scores above Threshold, else a website alias (case-insensitive),
// else a URL synthesized from the template with spaces removed.
func (c *Catalog) Resolve(target string) Resolution {
	for i := range c.Apps {
		if score := Ratio(target, c.Apps[i].Name); score > Threshold {
			return Resolution{App: &c.Apps[i], Score: score}
		}
	}

	for _, s := range c.Sites {
		if strings.EqualFold(s.Alias, target) {
			return Resolution{URL: s.URL}
		}
	}

	tmpl := c.URLTemplate
	if tmpl == "" {
		tmpl = DefaultURLTemplate
	}
	return Resolution{URL: fmt.Sprintf(tmpl, strings.ReplaceAll(target, " ", ""))}
}

// DefaultApps returns the built-in applications for the running platform.
func DefaultApps() []App {
	return defaultApps(runtime.GOOS)
}

func defaultApps(goos string) []App {
	switch goos {
	case "windows":
		return []App{
			{Name: "notepad", Command: []string{"notepad.exe"}},
			{Name: "calculator", Command: []string{"calc.exe"}},
			{Name: "chrome", Command: []string{"cmd", "/c", "start", "", "chrome"}},
		}
	case "darwin":
		return []App{
			{Name: "notepad", Command: []string{"open", "-a", "TextEdit"}},
			{Name: "calculator", Command: []string{"open", "-a", "Calculator"}},
			{Name: "chrome", Command: []string{"open", "-a", "Google Chrome"}},
		}
	default:
		return []App{
			{Name: "notepad", Command: []string{"gedit"}},
			{Name: "calculator", Command: []string{"gnome-calculator"}},
			{Name: "chrome", Command: []string{"google-chrome"}},
		}
	}
}

// DefaultSites returns the built-in website aliases.
func DefaultSites() []Site {
	return []Site{
		{Alias: "youtube", URL: "https://www.youtube.com"},
		{Alias: "google", URL: "https://www.google.com"},
		{Alias: "facebook", URL: "https://www.facebook.com"},
		{Alias: "twitter", URL: "https://www.twitter.com"},
		{Alias: "github", URL: "https://www.github.com"},
		{Alias: "stackoverflow", URL: "https://stackoverflow.com"},
	}
}
