package alerts

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration for TOML string parsing (e.g. "200ms", "1.5s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// AlertPatch changes selected fields of a static alert. Unset fields keep
// the built-in value.
type AlertPatch struct {
	Text1         *string   `toml:"text1"`
	Text2         *string   `toml:"text2"`
	Status        *string   `toml:"status"`
	Size          *string   `toml:"size"`
	Priority      *Priority `toml:"priority"`
	Visual        *string   `toml:"visual"`
	Audible       *string   `toml:"audible"`
	Duration      *Duration `toml:"duration"`
	CreationDelay *Duration `toml:"creation_delay"`
}

func (p AlertPatch) applyTo(a Alert) Alert {
	if p.Text1 != nil {
		a.Text1 = *p.Text1
	}
	if p.Text2 != nil {
		a.Text2 = *p.Text2
	}
	if p.Status != nil {
		a.Status = AlertStatus(*p.Status)
	}
	if p.Size != nil {
		a.Size = AlertSize(*p.Size)
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.Visual != nil {
		a.Visual = VisualAlert(*p.Visual)
	}
	if p.Audible != nil {
		a.Audible = AudibleAlert(*p.Audible)
	}
	if p.Duration != nil {
		a.Duration = p.Duration.Duration
	}
	if p.CreationDelay != nil {
		a.CreationDelay = p.CreationDelay.Duration
	}
	return a
}

// Overrides holds patches keyed by event name, then context name.
type Overrides map[string]map[string]AlertPatch

type overrideFile struct {
	Events Overrides `toml:"events"`
}

// LoadOverrides reads an alert table override file. An empty path yields no
// overrides.
func LoadOverrides(path string) (Overrides, error) {
	if path == "" {
		return nil, nil
	}

	var f overrideFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("decoding alert table %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidMapping, path, undecoded)
	}

	return f.Events, nil
}

// DecodeOverrides parses override TOML from a string.
func DecodeOverrides(data string) (Overrides, error) {
	var f overrideFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decoding alert table: %w", err)
	}
	return f.Events, nil
}

func (o Overrides) apply(registry *Registry, mapping Mapping) error {
	var errs []error

	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		id, ok := registry.Lookup(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: override for unknown event %q", ErrInvalidMapping, name))
			continue
		}

		for etName, patch := range o[name] {
			et, err := ParseEventType(etName)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidMapping, name, err))
				continue
			}

			entry, exists := mapping[id][et]
			if !exists {
				errs = append(errs, fmt.Errorf("%w: %s defines no %s alert", ErrInvalidMapping, name, et))
				continue
			}

			base, static := entry.StaticAlert()
			if !static {
				errs = append(errs, fmt.Errorf("%w: %s/%s is computed and cannot be overridden", ErrInvalidMapping, name, et))
				continue
			}

			mapping[id][et] = Static(patch.applyTo(base))
		}
	}

	return errors.Join(errs...)
}
