package internal

import (
	"io"

	"github.com/starford/tagnote/internal/suggest"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	suggester suggest.Suggester
	logOutput io.Writer
	stdin     io.Reader
	stdout    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithSuggester overrides the suggester built from the configuration.
func WithSuggester(s suggest.Suggester) Option {
	return func(a *application) {
		a.suggester = s
	}
}

// WithLogOutput redirects the JSON log stream. The MCP command uses it to
// keep stdout free for the protocol.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithStdio replaces the streams the MCP command speaks over.
func WithStdio(in io.Reader, out io.Writer) Option {
	return func(a *application) {
		a.stdin = in
		a.stdout = out
	}
}
