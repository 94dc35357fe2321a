package sound

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Library maps sound ids to files on disk.
type Library map[string]string

// Resolve returns the path registered for id. Relative paths resolve
// against the working directory, so a bare "alarm.wav" means ./alarm.wav.
func (l Library) Resolve(id string) (string, error) {
	path, ok := l[id]
	if !ok {
		return "", fmt.Errorf("unknown sound %q", id)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve sound %q: %w", id, err)
	}
	return abs, nil
}

// Load reads and decodes the clip registered for id.
func (l Library) Load(id string) (Clip, error) {
	path, err := l.Resolve(id)
	if err != nil {
		return Clip{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Clip{}, fmt.Errorf("read sound %q: %w", id, err)
	}
	clip, err := ParseWAV(data)
	if err != nil {
		return Clip{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return clip, nil
}

// Check verifies every registered file exists, sorted by id.
func (l Library) Check() []error {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		path, err := l.Resolve(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("sound %q: %w", id, err))
		}
	}
	return errs
}
