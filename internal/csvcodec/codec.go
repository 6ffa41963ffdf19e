// Package csvcodec converts the category store to and from the fixed
// 8-column CSV interchange format:
//
//	category_id,category_name,placeId,universeId,game_name,game_url,thumbnail,lastUpdated
//
// Empty categories are written as one row with blank game columns so they
// survive a round trip. Quoted fields may contain commas and doubled quotes
// but not newlines, because rows are split on newline before parsing.
package csvcodec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gameradar/internal/core"
)

const (
	ColCategoryID   = "category_id"
	ColCategoryName = "category_name"
	ColPlaceID      = "placeId"
	ColUniverseID   = "universeId"
	ColGameName     = "game_name"
	ColGameURL      = "game_url"
	ColThumbnail    = "thumbnail"
	ColLastUpdated  = "lastUpdated"

	// ImportedCategoryName names categories whose rows carry no name.
	ImportedCategoryName = "Imported"
)

// Header is the exported column order.
var Header = []string{
	ColCategoryID, ColCategoryName, ColPlaceID, ColUniverseID,
	ColGameName, ColGameURL, ColThumbnail, ColLastUpdated,
}

var (
	ErrEmpty          = fmt.Errorf("%w: empty CSV", core.ErrParse)
	ErrHeaderMismatch = fmt.Errorf("%w: CSV header mismatch", core.ErrParse)
)

// Rows returns one logical row per game, or one placeholder row per empty
// category, in store order.
func Rows(categories []core.Category) [][]string {
	var rows [][]string
	for _, c := range categories {
		if len(c.Games) == 0 {
			rows = append(rows, []string{c.ID, c.Name, "", "", "", "", "", ""})
			continue
		}
		for _, g := range c.Games {
			rows = append(rows, []string{
				c.ID, c.Name, g.PlaceID, g.UniverseID, g.Name, g.URL, g.Thumbnail, g.LastUpdated,
			})
		}
	}
	return rows
}

// Table is Rows preceded by a copy of Header.
func Table(categories []core.Category) [][]string {
	data := Rows(categories)
	rows := make([][]string, 0, len(data)+1)
	rows = append(rows, append([]string(nil), Header...))
	return append(rows, data...)
}

// Encode renders categories as CSV text with a header and no trailing newline.
func Encode(categories []core.Category) string {
	var b strings.Builder
	writeLine(&b, Header)
	for _, row := range Rows(categories) {
		b.WriteByte('\n')
		writeLine(&b, row)
	}
	return b.String()
}

func writeLine(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escape(f))
	}
}

// escape quotes a field only when it holds a comma, quote or newline.
func escape(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Decode parses CSV text into categories ordered by first appearance of
// their id. newID supplies ids for rows whose category_id is blank. Nothing
// is returned unless the whole input parses.
func Decode(text string, newID func() string) ([]core.Category, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmpty
	}

	col, err := resolveHeader(lines[0])
	if err != nil {
		return nil, err
	}

	var order []string
	byID := make(map[string]*core.Category)

	for _, line := range lines[1:] {
		cols := splitLine(line)
		get := func(name string) string { return safeGet(cols, col[name]) }

		catID := get(ColCategoryID)
		if catID == "" {
			catID = newID()
		}
		catName := get(ColCategoryName)
		if catName == "" {
			catName = ImportedCategoryName
		}

		cat, ok := byID[catID]
		if !ok {
			c := core.NewCategory(catID, catName)
			cat = &c
			byID[catID] = cat
			order = append(order, catID)
		}

		placeID := get(ColPlaceID)
		if placeID == "" {
			continue // category-only row
		}
		cat.Games = append(cat.Games, core.Game{
			PlaceID:     placeID,
			UniverseID:  get(ColUniverseID),
			Name:        get(ColGameName),
			URL:         get(ColGameURL),
			Thumbnail:   get(ColThumbnail),
			LastUpdated: get(ColLastUpdated),
		})
	}

	out := make([]core.Category, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

// FileName is the suggested download name for an export made at t.
func FileName(t time.Time) string {
	return "roblox-radar-" + t.UTC().Format("2006-01-02") + ".csv"
}

// splitLines drops carriage returns and blank lines.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r", "")
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

func resolveHeader(line string) (map[string]int, error) {
	header := strings.Split(line, ",")
	col := make(map[string]int, len(Header))
	for _, name := range Header {
		col[name] = indexOf(header, name)
	}

	var missing []string
	for _, name := range Header {
		if col[name] == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(ErrHeaderMismatch, fmt.Errorf("missing %s", strings.Join(missing, ",")))
	}
	return col, nil
}

// splitLine splits one row, honoring double-quoted fields and "" escapes.
func splitLine(line string) []string {
	var (
		res []string
		cur strings.Builder
		inQ bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inQ {
			switch {
			case ch == '"' && i+1 < len(line) && line[i+1] == '"':
				cur.WriteByte('"')
				i++
			case ch == '"':
				inQ = false
			default:
				cur.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '"':
			inQ = true
		case ',':
			res = append(res, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(res, cur.String())
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
