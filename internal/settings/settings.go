// Package settings loads and saves the terminal player's preferences as HCL.
package settings

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/lox/klondike/internal/fileutil"
	"github.com/muesli/termenv"
	"github.com/zclconf/go-cty/cty"
)

// Theme names accepted in the ui block
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Settings is the complete settings file
type Settings struct {
	UI  *UISettings  `hcl:"ui,block"`
	Log *LogSettings `hcl:"log,block"`
}

// UISettings controls the board display
type UISettings struct {
	ShowHints *bool  `hcl:"show_hints,optional"`
	Theme     string `hcl:"theme,optional"`
}

// LogSettings controls the file logger of the terminal host
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// Default returns the settings used when no file exists
func Default() *Settings {
	showHints := true
	return &Settings{
		UI: &UISettings{
			ShowHints: &showHints,
			Theme:     ThemeAuto,
		},
		Log: &LogSettings{
			Level: "warn",
			File:  "klondike.log",
		},
	}
}

// DefaultPath returns ~/.config/klondike/settings.hcl, honouring XDG_CONFIG_HOME
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "klondike", "settings.hcl"), nil
}

// Load reads settings from filename. A missing file yields the defaults.
func Load(filename string) (*Settings, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var s Settings
	diags = gohcl.DecodeBody(file.Body, nil, &s)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", filename, err)
	}
	return &s, nil
}

func (s *Settings) applyDefaults() {
	defaults := Default()

	if s.UI == nil {
		s.UI = defaults.UI
	}
	if s.UI.ShowHints == nil {
		s.UI.ShowHints = defaults.UI.ShowHints
	}
	if s.UI.Theme == "" {
		s.UI.Theme = defaults.UI.Theme
	}

	if s.Log == nil {
		s.Log = defaults.Log
	}
	if s.Log.Level == "" {
		s.Log.Level = defaults.Log.Level
	}
	if s.Log.File == "" {
		s.Log.File = defaults.Log.File
	}
}

// Validate checks the theme name and log level
func (s *Settings) Validate() error {
	validThemes := map[string]bool{
		ThemeAuto:  true,
		ThemeDark:  true,
		ThemeLight: true,
	}
	if !validThemes[s.UI.Theme] {
		return fmt.Errorf("invalid theme: %s (must be auto, dark or light)", s.UI.Theme)
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", s.Log.Level)
	}
	return nil
}

// HintsEnabled reports the show_hints toggle
func (s *Settings) HintsEnabled() bool {
	return s.UI.ShowHints == nil || *s.UI.ShowHints
}

// SetHints updates the show_hints toggle
func (s *Settings) SetHints(show bool) {
	s.UI.ShowHints = &show
}

// LogLevel returns the parsed log level, falling back to warn
func (s *Settings) LogLevel() log.Level {
	level, err := log.ParseLevel(s.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return level
}

// ResolveTheme turns "auto" into "dark" or "light" by asking the terminal
// for its background colour.
func (s *Settings) ResolveTheme() string {
	return resolveTheme(s.UI.Theme, termenv.HasDarkBackground)
}

func resolveTheme(theme string, hasDarkBackground func() bool) string {
	switch theme {
	case ThemeDark, ThemeLight:
		return theme
	default:
		if hasDarkBackground() {
			return ThemeDark
		}
		return ThemeLight
	}
}

// Encode renders the settings as HCL
func (s *Settings) Encode() []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	ui := root.AppendNewBlock("ui", nil).Body()
	ui.SetAttributeValue("show_hints", cty.BoolVal(s.HintsEnabled()))
	ui.SetAttributeValue("theme", cty.StringVal(s.UI.Theme))

	root.AppendNewline()

	logBlock := root.AppendNewBlock("log", nil).Body()
	logBlock.SetAttributeValue("level", cty.StringVal(s.Log.Level))
	logBlock.SetAttributeValue("file", cty.StringVal(s.Log.File))

	return hclwrite.Format(f.Bytes())
}

// Save writes the settings to filename atomically, creating its directory if needed
func Save(filename string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(filename, s.Encode(), 0o644); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
