package adapter

import "context"

// FormField is one input discovered on an application form.
type FormField struct {
	Name     string // submit name / selector handle
	Label    string // human-visible label text
	Kind     string // "text", "email", "tel", "textarea", "select", "file", "checkbox"
	Required bool
	Options  []string // for selects
}

// Session is the contract the orchestrator expects from one browser-like
// session. Every method is a potential suspension point; implementations
// honor ctx cancellation. The concrete automation primitive is an external
// collaborator behind this port.
type Session interface {
	// Navigate loads a URL and returns the HTTP status and final URL after
	// redirects.
	Navigate(ctx context.Context, url string) (status int, finalURL string, err error)
	CurrentURL() string
	// Content returns the current page HTML.
	Content(ctx context.Context) (string, error)
	// Fields enumerates the application form's inputs.
	Fields(ctx context.Context) ([]FormField, error)
	Fill(ctx context.Context, name, value string) error
	Select(ctx context.Context, name, option string) error
	Upload(ctx context.Context, name, filePath string) error
	// ClickThrough follows the link/button matched by selector and returns
	// the URL it landed on. Used by the redirect filler on landing pages.
	ClickThrough(ctx context.Context, selector string) (string, error)
	// Submit posts the filled form.
	Submit(ctx context.Context) error
	Close() error
}

// SessionManager owns session lifecycle and enforces the concurrent-session
// cap. ActiveSessions is observable so abort semantics can be asserted.
type SessionManager interface {
	NewSession(ctx context.Context) (Session, error)
	ActiveSessions() int
}
