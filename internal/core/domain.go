package core

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// DefaultCategoryName is the category that always exists and receives new games.
const DefaultCategoryName = "Default"

type (
	// Game is a single tracked place.
	Game struct {
		PlaceID     string `json:"placeId"`
		UniverseID  string `json:"universeId"`
		Name        string `json:"name"`
		URL         string `json:"url"`
		Thumbnail   string `json:"thumbnail"`
		LastUpdated string `json:"lastUpdated"`
	}

	// Category groups games under a user-chosen name. ID survives renames.
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Games []Game `json:"games"`
	}

	// Store is the whole persisted state; category order is display order.
	Store struct {
		Categories []Category `json:"categories"`
	}

	// GameInfo is the upstream metadata for one universe.
	GameInfo struct {
		UniverseID  string
		Name        string
		LastUpdated string
	}
)

var (
	ErrEmptyPlaceID    = errors.New("empty place id")
	ErrEmptyUniverseID = errors.New("empty universe id")
)

// NewGame builds a Game, rejecting records without identifiers.
func NewGame(placeID, universeID, name, url, thumbnail, lastUpdated string) (Game, error) {
	g := Game{
		PlaceID:     strings.TrimSpace(placeID),
		UniverseID:  strings.TrimSpace(universeID),
		Name:        name,
		URL:         url,
		Thumbnail:   thumbnail,
		LastUpdated: lastUpdated,
	}
	if err := g.Validate(); err != nil {
		return Game{}, err
	}
	return g, nil
}

func (g Game) Validate() error {
	if g.PlaceID == "" {
		return errors.Join(ErrValidation, ErrEmptyPlaceID)
	}
	if g.UniverseID == "" {
		return errors.Join(ErrValidation, ErrEmptyUniverseID)
	}
	return nil
}

// NewCategory returns an empty category with the given id and name.
func NewCategory(id, name string) Category {
	return Category{ID: id, Name: name, Games: []Game{}}
}

// IsDefault reports whether c is the Default category.
func (c Category) IsDefault() bool {
	return c.Name == DefaultCategoryName
}

// IndexOf returns the position of placeID in c, or -1.
func (c Category) IndexOf(placeID string) int {
	for i, g := range c.Games {
		if g.PlaceID == placeID {
			return i
		}
	}
	return -1
}

// SortByLatest orders games most recently updated first.
func (c *Category) SortByLatest() {
	sort.SliceStable(c.Games, func(i, j int) bool {
		return ParseTimestamp(c.Games[i].LastUpdated).After(ParseTimestamp(c.Games[j].LastUpdated))
	})
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	out := Store{Categories: make([]Category, len(s.Categories))}
	for i, c := range s.Categories {
		games := make([]Game, len(c.Games))
		copy(games, c.Games)
		out.Categories[i] = Category{ID: c.ID, Name: c.Name, Games: games}
	}
	return out
}

// TotalGames counts games across all categories.
func (s Store) TotalGames() int {
	n := 0
	for _, c := range s.Categories {
		n += len(c.Games)
	}
	return n
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an upstream update token. Unparseable values yield the zero time.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
