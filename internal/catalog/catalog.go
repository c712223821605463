// Package catalog loads action space and card definitions from CSV tables.
package catalog

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"homestead/internal/game"
	"homestead/internal/goods"
)

//go:embed data/*.csv
var dataFiles embed.FS

const (
	actionsFile = "actions.csv"
	cardsFile   = "cards.csv"
)

var (
	ErrMalformed = errors.New("malformed catalog row")
	ErrDuplicate = errors.New("duplicate catalog id")
)

// Catalog is an ActionRegistry backed by parsed tables.
type Catalog struct {
	spaces []game.ActionDef
	byID   map[string]game.ActionDef
	cards  map[string]game.CardDef
}

var _ game.ActionRegistry = (*Catalog)(nil)

// Default loads the embedded tables.
func Default() (*Catalog, error) {
	return loadFS(dataFiles, "data")
}

// Load reads actions.csv and cards.csv from a directory on disk.
func Load(dir string) (*Catalog, error) {
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) (*Catalog, error) {
	actions, err := fsys.Open(path.Join(dir, actionsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", actionsFile, err)
	}
	defer actions.Close()

	cards, err := fsys.Open(path.Join(dir, cardsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cardsFile, err)
	}
	defer cards.Close()

	return Parse(actions, cards)
}

// Parse builds a catalog from an action table and a card table.
func Parse(actions, cards io.Reader) (*Catalog, error) {
	c := &Catalog{
		byID:  make(map[string]game.ActionDef),
		cards: make(map[string]game.CardDef),
	}

	err := readTable(actions, actionsFile, []string{"id", "effect", "row", "col"}, func(r record) error {
		def, err := parseAction(r)
		if err != nil {
			return err
		}
		if _, dup := c.byID[def.ID]; dup {
			return fmt.Errorf("%s: %w: %s", r.where(), ErrDuplicate, def.ID)
		}
		c.byID[def.ID] = def
		c.spaces = append(c.spaces, def)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readTable(cards, cardsFile, []string{"id", "kind"}, func(r record) error {
		def, err := parseCard(r)
		if err != nil {
			return err
		}
		if _, dup := c.cards[def.ID]; dup {
			return fmt.Errorf("%s: %w: %s", r.where(), ErrDuplicate, def.ID)
		}
		c.cards[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, def := range c.cards {
		for _, id := range def.Replaces {
			if old, ok := c.cards[id]; !ok || old.Kind != game.CardMajor {
				return nil, fmt.Errorf("%s: %w: %s replaces unknown major improvement %q", cardsFile, ErrMalformed, def.ID, id)
			}
		}
	}
	return c, nil
}

// Lookup returns an action space definition by id.
func (c *Catalog) Lookup(id string) (game.ActionDef, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Spaces returns every action space in table order.
func (c *Catalog) Spaces() []game.ActionDef {
	return append([]game.ActionDef(nil), c.spaces...)
}

// Card returns a card definition by id.
func (c *Catalog) Card(id string) (game.CardDef, bool) {
	d, ok := c.cards[id]
	return d, ok
}

// Cards returns the ids of every card of the given kind, sorted.
func (c *Catalog) Cards(kind game.CardKind) []string {
	var ids []string
	for id, d := range c.cards {
		if d.Kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// record is one CSV row addressed by column name.
type record struct {
	file   string
	line   int
	index  map[string]int
	fields []string
}

func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) where() string {
	return fmt.Sprintf("%s:%d", r.file, r.line)
}

func (r record) intField(col string) (int, error) {
	s := r.get(col)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %s=%q", r.where(), ErrMalformed, col, s)
	}
	return n, nil
}

func (r record) boolField(col string) (bool, error) {
	s := r.get(col)
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %s=%q", r.where(), ErrMalformed, col, s)
	}
	return b, nil
}

func (r record) goodsField(col string) (goods.Goods, error) {
	gs, err := parseGoods(r.get(col))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s: %v", r.where(), ErrMalformed, col, err)
	}
	return gs, nil
}

// readTable reads a header row, checks the required columns and hands every
// following row to fn.
func readTable(src io.Reader, file string, required []string, fn func(record) error) error {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", file, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: %w: missing column %q", file, ErrMalformed, col)
		}
	}

	line := 1
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		if err := fn(record{file: file, line: line, index: index, fields: fields}); err != nil {
			return err
		}
	}
}

func parseAction(r record) (game.ActionDef, error) {
	def := game.ActionDef{
		ID:   r.get("id"),
		Name: r.get("name"),
	}
	if def.ID == "" {
		return def, fmt.Errorf("%s: %w: empty id", r.where(), ErrMalformed)
	}
	if def.Name == "" {
		def.Name = def.ID
	}

	effect, err := game.ParseEffectKind(r.get("effect"))
	if err != nil {
		return def, fmt.Errorf("%s: %w", r.where(), err)
	}
	def.Effect = effect

	ints := []struct {
		col string
		dst *int
	}{
		{"stage", &def.Stage},
		{"min_players", &def.MinPlayers},
		{"max_players", &def.MaxPlayers},
		{"row", &def.At.Row},
		{"col", &def.At.Col},
		{"capacity", &def.Capacity},
		{"max_amount", &def.MaxAmount},
	}
	for _, f := range ints {
		if *f.dst, err = r.intField(f.col); err != nil {
			return def, err
		}
	}

	if def.Goods, err = r.goodsField("goods"); err != nil {
		return def, err
	}
	if def.Cost, err = r.goodsField("cost"); err != nil {
		return def, err
	}

	for _, name := range splitList(r.get("options")) {
		g, err := goods.ParseGood(name)
		if err != nil {
			return def, fmt.Errorf("%s: %w: options: %v", r.where(), ErrMalformed, err)
		}
		def.Options = append(def.Options, g)
	}

	switch def.Effect {
	case game.EffectChooseResource:
		if len(def.Options) == 0 || def.MaxAmount < 1 {
			return def, fmt.Errorf("%s: %w: %s needs options and max_amount", r.where(), ErrMalformed, def.ID)
		}
	case game.EffectTakeGoods, game.EffectAccumulate:
		if def.Goods.IsEmpty() {
			return def, fmt.Errorf("%s: %w: %s gives nothing", r.where(), ErrMalformed, def.ID)
		}
	}
	return def, nil
}

func parseCard(r record) (game.CardDef, error) {
	def := game.CardDef{
		ID:   r.get("id"),
		Name: r.get("name"),
	}
	if def.ID == "" {
		return def, fmt.Errorf("%s: %w: empty id", r.where(), ErrMalformed)
	}
	kind, err := game.ParseCardKind(r.get("kind"))
	if err != nil {
		return def, fmt.Errorf("%s: %w: %v", r.where(), ErrMalformed, err)
	}
	def.Kind = kind
	if def.Cost, err = r.goodsField("cost"); err != nil {
		return def, err
	}
	if def.Grant, err = r.goodsField("grant"); err != nil {
		return def, err
	}
	if def.MinOccupations, err = r.intField("min_occupations"); err != nil {
		return def, err
	}
	if def.PassLeft, err = r.boolField("pass_left"); err != nil {
		return def, err
	}
	if def.Bakes, err = r.boolField("bakes"); err != nil {
		return def, err
	}
	def.Replaces = splitList(r.get("replaces"))
	return def, nil
}

// parseGoods reads "wood:3;reed:1". A bare name counts as one.
func parseGoods(s string) (goods.Goods, error) {
	out := goods.Goods{}
	for _, item := range splitList(s) {
		name, count, found := strings.Cut(item, ":")
		n := 1
		if found {
			v, err := strconv.Atoi(strings.TrimSpace(count))
			if err != nil || v < 0 {
				return nil, fmt.Errorf("bad amount in %q", item)
			}
			n = v
		}
		g, err := goods.ParseGood(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out[g] += n
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
