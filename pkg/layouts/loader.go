package layouts

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	"homestead/internal/game"
)

//go:embed data/*.json
var layoutFiles embed.FS

// Default is the layout used when none is chosen.
const Default = "classic"

var ErrUnknownLayout = errors.New("unknown layout")

var (
	mu       sync.RWMutex
	registry = make(map[string]*Layout)
)

// LoadAll loads all embedded layouts into the registry.
func LoadAll() error {
	entries, err := layoutFiles.ReadDir("data")
	if err != nil {
		return fmt.Errorf("failed to read layout directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		l, err := Load(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to load layout %s: %w", entry.Name(), err)
		}
		Register(l)
	}
	return nil
}

// Load loads a single embedded layout by filename.
func Load(filename string) (*Layout, error) {
	data, err := layoutFiles.ReadFile(path.Join("data", filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}
	return LoadFromJSON(data)
}

// LoadFromJSON loads a layout from JSON bytes.
func LoadFromJSON(data []byte) (*Layout, error) {
	var raw RawLayout
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse layout JSON: %w", err)
	}
	if err := validate(&raw); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	return process(&raw), nil
}

// Register adds a layout to the registry, replacing one with the same ID.
func Register(l *Layout) {
	if l == nil || l.ID == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	registry[l.ID] = l
}

// Get retrieves a layout from the registry by ID.
func Get(id string) (*Layout, error) {
	mu.RLock()
	defer mu.RUnlock()
	l, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, id)
	}
	return l, nil
}

// List returns every registered layout sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()
	infos := make([]Info, 0, len(registry))
	for _, l := range registry {
		infos = append(infos, l.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Rules loads the embedded layouts if needed and applies the named one to rules.
func Rules(id string, rules game.Rules) (game.Rules, error) {
	if id == "" {
		id = Default
	}
	l, err := Get(id)
	if errors.Is(err, ErrUnknownLayout) {
		if err := LoadAll(); err != nil {
			return rules, err
		}
		l, err = Get(id)
	}
	if err != nil {
		return rules, err
	}
	out := l.Apply(rules)
	if err := out.Validate(); err != nil {
		return rules, fmt.Errorf("layout %s: %w", id, err)
	}
	return out, nil
}

func validate(raw *RawLayout) error {
	if raw.ID == "" {
		return fmt.Errorf("layout ID is required")
	}
	if raw.Name == "" {
		return fmt.Errorf("layout name is required")
	}
	if len(raw.Grid) == 0 || len(raw.Grid[0]) == 0 {
		return fmt.Errorf("grid is empty")
	}
	width := len(raw.Grid[0])
	rooms := 0
	for r, row := range raw.Grid {
		if len(row) != width {
			return fmt.Errorf("row %d width mismatch: expected %d, got %d", r, width, len(row))
		}
		for c, ch := range row {
			switch ch {
			case cellEmpty:
			case cellRoom:
				rooms++
			default:
				return fmt.Errorf("unknown cell %q at (%d,%d)", ch, r, c)
			}
		}
	}
	if rooms == 0 {
		return fmt.Errorf("layout needs a starting room")
	}
	return nil
}
