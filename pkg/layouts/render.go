package layouts

import (
	"fmt"
	"strings"

	"homestead/internal/game"
)

var symbols = map[game.SpaceKind]byte{
	game.KindEmpty:     '.',
	game.KindBlocked:   '#',
	game.KindWoodRoom:  'W',
	game.KindClayRoom:  'C',
	game.KindStoneRoom: 'S',
	game.KindField:     'f',
	game.KindPasture:   'p',
	game.KindAction:    'A',
}

func symbol(s game.SpaceView) byte {
	if s.Stable && s.Kind == game.KindEmpty {
		return 's'
	}
	if s.Kind == game.KindAction && len(s.Workers) > 0 && len(s.Workers) < 10 {
		return byte('0' + len(s.Workers))
	}
	if b, ok := symbols[s.Kind]; ok {
		return b
	}
	return '?'
}

// Render returns a text drawing of a board followed by every cell that holds
// workers, goods or an action. Fences are drawn as '-' and '|'.
func Render(v game.BoardView) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Board: %s", v.Name))
	if v.Owner != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", v.Owner))
	}
	sb.WriteString(fmt.Sprintf("\nSize: %dx%d\n\n", v.Rows, v.Cols))

	fenced := v.HFences != nil
	for r := 0; r < v.Rows; r++ {
		if fenced {
			writeFenceRow(&sb, v, r)
		}
		for c := 0; c < v.Cols; c++ {
			if fenced {
				sb.WriteByte(vertical(v, r, c))
			} else if c > 0 {
				sb.WriteByte(' ')
			}
			s, _ := v.At(game.At(r, c))
			sb.WriteByte(symbol(s))
		}
		if fenced {
			sb.WriteByte(vertical(v, r, v.Cols))
		}
		sb.WriteByte('\n')
	}
	if fenced {
		writeFenceRow(&sb, v, v.Rows)
	}

	var details []string
	for _, s := range v.Spaces {
		if s.Action == "" && len(s.Workers) == 0 && s.Goods.IsEmpty() {
			continue
		}
		line := fmt.Sprintf("  %s %s", s.At, s.Kind)
		if s.Action != "" {
			line += " " + s.Action
		}
		if len(s.Workers) > 0 {
			line += fmt.Sprintf(" workers=%v", s.Workers)
		}
		if !s.Goods.IsEmpty() {
			line += " goods=" + s.Goods.String()
		}
		details = append(details, line)
	}
	if len(details) > 0 {
		sb.WriteString("\nSpaces:\n")
		sb.WriteString(strings.Join(details, "\n"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeFenceRow(sb *strings.Builder, v game.BoardView, r int) {
	sb.WriteByte('+')
	for c := 0; c < v.Cols; c++ {
		if v.HasFence(game.Edge{Row: r, Col: c}) {
			sb.WriteByte('-')
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteByte('+')
	}
	sb.WriteByte('\n')
}

func vertical(v game.BoardView, r, c int) byte {
	if v.HasFence(game.Edge{Row: r, Col: c, Vertical: true}) {
		return '|'
	}
	return ' '
}
