// Package install offers the application as a launchable desktop app.
//
// The UI only sees the Prompter capability, so targets without a desktop
// use Noop and the install affordance never appears.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Outcome is the result of an install prompt.
type Outcome int

const (
	Dismissed Outcome = iota
	Installed
)

func (o Outcome) String() string {
	if o == Installed {
		return "installed"
	}
	return "dismissed"
}

// Prompter is the install capability.
type Prompter interface {
	// Available reports whether installing is currently possible.
	Available() bool
	// Prompt performs the installation.
	Prompt(ctx context.Context) (Outcome, error)
}

// Noop is never available.
type Noop struct{}

func (Noop) Available() bool { return false }

func (Noop) Prompt(context.Context) (Outcome, error) { return Dismissed, nil }

// DesktopFileName is the name of the launcher entry Launcher writes.
const DesktopFileName = "moviefinder.desktop"

// Launcher installs an XDG desktop entry that opens the TUI in a terminal.
type Launcher struct {
	// Dir is the applications directory, e.g. ~/.local/share/applications.
	Dir string
	// Exec is the absolute path of the binary to launch.
	Exec string
}

// NewLauncher returns a Launcher for the running executable, or nil when
// no applications directory can be determined.
func NewLauncher() *Launcher {
	dir := applicationsDir()
	exe, err := os.Executable()
	if dir == "" || err != nil {
		return nil
	}
	return &Launcher{Dir: dir, Exec: exe}
}

func applicationsDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return filepath.Join(d, "applications")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "applications")
}

// Path is where the desktop entry is written.
func (l *Launcher) Path() string {
	return filepath.Join(l.Dir, DesktopFileName)
}

// Available is true until the entry has been written.
func (l *Launcher) Available() bool {
	if l == nil || l.Dir == "" || l.Exec == "" {
		return false
	}
	_, err := os.Stat(l.Path())
	return errors.Is(err, os.ErrNotExist)
}

// Prompt writes the desktop entry.
func (l *Launcher) Prompt(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Dismissed, err
	}
	if !l.Available() {
		return Dismissed, nil
	}
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return Dismissed, fmt.Errorf("install: create %s: %w", l.Dir, err)
	}
	if err := os.WriteFile(l.Path(), []byte(l.entry()), 0644); err != nil {
		return Dismissed, fmt.Errorf("install: write desktop entry: %w", err)
	}
	return Installed, nil
}

func (l *Launcher) entry() string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")
	b.WriteString("Type=Application\n")
	b.WriteString("Name=MovieFinder\n")
	b.WriteString("Comment=Find movies you'll enjoy without the hassle\n")
	fmt.Fprintf(&b, "Exec=%q\n", l.Exec)
	b.WriteString("Terminal=true\n")
	b.WriteString("Categories=AudioVideo;Video;\n")
	return b.String()
}
