// Package settings holds the user-tunable policy read by the store, the
// monitor and the retention scheduler.
//
// Components never read a global: they receive a Provider at construction
// and call Settings() whenever they need the current values, so a settings
// change takes effect on the next operation.
package settings

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed settings.cue
var schemaSource string

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid settings")

// ErrUnknownKey is returned by Set for keys that are not settings.
var ErrUnknownKey = errors.New("unknown settings key")

// Theme is the stored UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "Light"
	ThemeDark   Theme = "Dark"
	ThemeSystem Theme = "System"
)

// Settings is the full set of user preferences.
type Settings struct {
	MaxHistorySize int   `yaml:"max_history_size" json:"max_history_size"`
	AutoClear      bool  `yaml:"auto_clear" json:"auto_clear"`
	AutoClearTime  int   `yaml:"auto_clear_time" json:"auto_clear_time"` // minutes
	ImageCapture   bool  `yaml:"image_capture" json:"image_capture"`
	ForceToFront   bool  `yaml:"force_to_front" json:"force_to_front"`
	AutoStart      bool  `yaml:"auto_start" json:"auto_start"`
	Theme          Theme `yaml:"theme" json:"theme"`
}

// Defaults returns the settings used when nothing has been configured.
func Defaults() Settings {
	return Settings{
		MaxHistorySize: 100,
		AutoClear:      false,
		AutoClearTime:  5,
		ImageCapture:   true,
		ForceToFront:   false,
		AutoStart:      false,
		Theme:          ThemeSystem,
	}
}

// AutoClearTTL is the lifetime given to unpinned entries while auto-clear is on.
func (s Settings) AutoClearTTL() time.Duration {
	return time.Duration(s.AutoClearTime) * time.Minute
}

// Validate checks s against the embedded CUE schema.
func (s Settings) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("settings.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile settings schema: %w", err)
	}

	value := ctx.Encode(s)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Settings"))
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimSpace(cueerrors.Details(err, nil)))
	}
	return nil
}

// setters maps each YAML key to a parser that updates one field.
var setters = map[string]func(*Settings, string) error{
	"max_history_size": func(s *Settings, v string) error { return setInt(&s.MaxHistorySize, v) },
	"auto_clear":       func(s *Settings, v string) error { return setBool(&s.AutoClear, v) },
	"auto_clear_time":  func(s *Settings, v string) error { return setInt(&s.AutoClearTime, v) },
	"image_capture":    func(s *Settings, v string) error { return setBool(&s.ImageCapture, v) },
	"force_to_front":   func(s *Settings, v string) error { return setBool(&s.ForceToFront, v) },
	"auto_start":       func(s *Settings, v string) error { return setBool(&s.AutoStart, v) },
	"theme": func(s *Settings, v string) error {
		s.Theme = Theme(v)
		return nil
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into the field named by key. It does not validate the
// resulting settings; callers validate once after applying all changes.
func (s *Settings) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := set(s, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer: %q", v)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("not a boolean: %q", v)
	}
	*dst = b
	return nil
}
