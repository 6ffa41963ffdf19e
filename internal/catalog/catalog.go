// Package catalog owns the live category/game store and keeps its invariants:
// exactly one "Default" category, games sorted by recency, and one copy of
// each place at add time. Every mutation is written through to a
// storage.Gateway as a full snapshot.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"gameradar/internal/core"
	applog "gameradar/internal/log"
	"gameradar/internal/storage"
)

// Catalog is safe for concurrent use. Each operation runs under one lock,
// so readers never observe a partially applied mutation.
type Catalog struct {
	mu      sync.Mutex
	state   core.Store
	gateway storage.Gateway
	newID   func() string
	logger  *applog.Logger
}

type Option func(*Catalog)

// WithIDGenerator replaces the UUID generator used for new categories.
func WithIDGenerator(fn func() string) Option {
	return func(c *Catalog) { c.newID = fn }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// New loads the store from gw. Absent or unreadable state falls back to a
// single Default category.
func New(ctx context.Context, gw storage.Gateway, opts ...Option) *Catalog {
	c := &Catalog{
		gateway: gw,
		newID:   uuid.NewString,
		logger:  applog.Default(applog.ComponentCatalog),
	}
	for _, opt := range opts {
		opt(c)
	}

	st, ok, err := gw.Load(ctx)
	switch {
	case err != nil:
		c.logger.WarnContext(ctx, "Stored state unreadable, starting fresh", applog.FieldError, err)
		st = c.freshStore()
	case !ok || len(st.Categories) == 0:
		st = c.freshStore()
	}
	for i := range st.Categories {
		if st.Categories[i].Games == nil {
			st.Categories[i].Games = []core.Game{}
		}
	}
	c.state = st

	c.EnsureDefault(ctx)
	return c
}

func (c *Catalog) freshStore() core.Store {
	return core.Store{Categories: []core.Category{core.NewCategory(c.newID(), core.DefaultCategoryName)}}
}

// EnsureDefault guarantees a Default category exists, inserting one at the
// front when missing, and persists.
func (c *Catalog) EnsureDefault(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureDefaultLocked()
	c.persistLocked(ctx, applog.OpEnsureDefault)
}

func (c *Catalog) ensureDefaultLocked() {
	if len(c.state.Categories) == 0 {
		c.state.Categories = []core.Category{core.NewCategory(c.newID(), core.DefaultCategoryName)}
		return
	}
	for _, cat := range c.state.Categories {
		if cat.IsDefault() {
			return
		}
	}
	def := core.NewCategory(c.newID(), core.DefaultCategoryName)
	c.state.Categories = append([]core.Category{def}, c.state.Categories...)
}

// defaultIndexLocked returns the Default category, or the first one.
func (c *Catalog) defaultIndexLocked() int {
	for i, cat := range c.state.Categories {
		if cat.IsDefault() {
			return i
		}
	}
	return 0
}

func (c *Catalog) indexLocked(id string) int {
	for i, cat := range c.state.Categories {
		if cat.ID == id {
			return i
		}
	}
	return -1
}

// AddCategory appends an empty category. The name "Default" is reserved
// since a Default category always exists.
func (c *Catalog) AddCategory(ctx context.Context, name string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, fmt.Errorf("%w: category name is empty", core.ErrValidation)
	}
	if name == core.DefaultCategoryName {
		return core.Category{}, fmt.Errorf("%w: a %q category already exists", core.ErrValidation, core.DefaultCategoryName)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cat := core.NewCategory(c.newID(), name)
	c.state.Categories = append(c.state.Categories, cat)
	c.persistLocked(ctx, applog.OpCreate)

	c.logger.InfoContext(ctx, "Category added", applog.FieldCategoryID, cat.ID, applog.FieldCategoryName, name)
	return cat, nil
}

// RenameCategory changes a category's name. Unknown ids are ignored.
// Taking the name "Default" from another category is rejected.
func (c *Catalog) RenameCategory(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is empty", core.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx == -1 {
		return nil
	}
	if name == core.DefaultCategoryName {
		for _, other := range c.state.Categories {
			if other.ID != id && other.IsDefault() {
				return fmt.Errorf("%w: a %q category already exists", core.ErrValidation, core.DefaultCategoryName)
			}
		}
	}

	c.state.Categories[idx].Name = name
	// Renaming Default away leaves none; put a fresh one back.
	c.ensureDefaultLocked()
	c.persistLocked(ctx, applog.OpRename)
	return nil
}

// DeleteCategory removes a category. Its games move to Default unless the
// deleted category is Default itself.
func (c *Catalog) DeleteCategory(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(id)
	if idx == -1 {
		return
	}
	target := c.state.Categories[idx]
	def := c.defaultIndexLocked()
	if c.state.Categories[def].ID != id {
		c.state.Categories[def].Games = append(c.state.Categories[def].Games, target.Games...)
	}

	c.state.Categories = append(c.state.Categories[:idx:idx], c.state.Categories[idx+1:]...)
	c.ensureDefaultLocked()
	c.persistLocked(ctx, applog.OpDelete)

	c.logger.InfoContext(ctx, "Category deleted",
		applog.FieldCategoryID, id,
		"moved_games", len(target.Games))
}

// AddGame inserts g into Default. The duplicate check and the insert happen
// under the same lock.
func (c *Catalog) AddGame(ctx context.Context, g core.Game) error {
	if err := g.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, _, found := c.findLocked(g.PlaceID); found {
		return fmt.Errorf("%w: place %s", core.ErrDuplicate, g.PlaceID)
	}

	def := c.defaultIndexLocked()
	c.state.Categories[def].Games = append(c.state.Categories[def].Games, g)
	c.state.Categories[def].SortByLatest()
	c.persistLocked(ctx, applog.OpCreate)

	c.logger.InfoContext(ctx, "Game added",
		applog.FieldPlaceID, g.PlaceID,
		applog.FieldUniverseID, g.UniverseID,
		applog.FieldGameName, g.Name)
	return nil
}

// RemoveGame stops tracking placeID in catID. It reports whether anything changed.
func (c *Catalog) RemoveGame(ctx context.Context, catID, placeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexLocked(catID)
	if idx == -1 {
		return false
	}
	cat := &c.state.Categories[idx]
	gi := cat.IndexOf(placeID)
	if gi == -1 {
		return false
	}
	cat.Games = append(cat.Games[:gi:gi], cat.Games[gi+1:]...)
	c.persistLocked(ctx, applog.OpDelete)
	return true
}

// MoveGame relocates a game between two different categories. Moves within
// one category are refused; ordering is always by recency.
func (c *Catalog) MoveGame(ctx context.Context, placeID, fromID, toID string) bool {
	if fromID == toID {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	from, to := c.indexLocked(fromID), c.indexLocked(toID)
	if from == -1 || to == -1 {
		return false
	}
	gi := c.state.Categories[from].IndexOf(placeID)
	if gi == -1 {
		return false
	}

	src := &c.state.Categories[from]
	game := src.Games[gi]
	src.Games = append(src.Games[:gi:gi], src.Games[gi+1:]...)
	dst := &c.state.Categories[to]
	dst.Games = append(dst.Games, game)

	src.SortByLatest()
	dst.SortByLatest()
	c.persistLocked(ctx, applog.OpMove)

	c.logger.InfoContext(ctx, "Game moved",
		applog.FieldPlaceID, placeID,
		"to", dst.Name)
	return true
}

// Replace swaps in an imported category list.
func (c *Catalog) Replace(ctx context.Context, cats []core.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := core.Store{Categories: cats}.Clone()
	if len(st.Categories) == 0 {
		st = c.freshStore()
	}
	c.state = st
	c.ensureDefaultLocked()
	c.persistLocked(ctx, applog.OpImport)

	c.logger.InfoContext(ctx, "Store replaced",
		"categories", len(c.state.Categories),
		"games", c.state.TotalGames())
}

// ApplyUpdates merges fetched metadata into every game sharing a universe id.
// A game changes when its stored timestamp differs from the fetched one. When
// anything changed, all categories are re-sorted and the store is saved once.
// The changed games are returned in store order.
func (c *Catalog) ApplyUpdates(ctx context.Context, infos map[string]core.GameInfo) []core.Game {
	if len(infos) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []core.Game
	for ci := range c.state.Categories {
		games := c.state.Categories[ci].Games
		for gi := range games {
			info, ok := infos[games[gi].UniverseID]
			if !ok || games[gi].LastUpdated == info.LastUpdated {
				continue
			}
			games[gi].LastUpdated = info.LastUpdated
			games[gi].Name = info.Name
			changed = append(changed, games[gi])
		}
	}

	if len(changed) == 0 {
		return nil
	}
	for ci := range c.state.Categories {
		c.state.Categories[ci].SortByLatest()
	}
	c.persistLocked(ctx, applog.OpSync)
	return changed
}

// Snapshot returns a deep copy of the current store.
func (c *Catalog) Snapshot() core.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Category returns a copy of the category with the given id.
func (c *Catalog) Category(id string) (core.Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexLocked(id)
	if idx == -1 {
		return core.Category{}, false
	}
	return core.Store{Categories: c.state.Categories[idx : idx+1]}.Clone().Categories[0], true
}

// FindGame locates placeID anywhere in the store.
func (c *Catalog) FindGame(placeID string) (catID string, g core.Game, found bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(placeID)
}

func (c *Catalog) findLocked(placeID string) (string, core.Game, bool) {
	for _, cat := range c.state.Categories {
		if i := cat.IndexOf(placeID); i != -1 {
			return cat.ID, cat.Games[i], true
		}
	}
	return "", core.Game{}, false
}

// UniverseIDs lists distinct universe ids in first-seen order.
func (c *Catalog) UniverseIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{})
	var ids []string
	for _, cat := range c.state.Categories {
		for _, g := range cat.Games {
			if _, ok := seen[g.UniverseID]; ok || g.UniverseID == "" {
				continue
			}
			seen[g.UniverseID] = struct{}{}
			ids = append(ids, g.UniverseID)
		}
	}
	return ids
}

// persistLocked saves a snapshot. Failures are logged, never returned.
func (c *Catalog) persistLocked(ctx context.Context, op string) {
	if err := c.gateway.Save(ctx, c.state.Clone()); err != nil {
		c.logger.ErrorContext(ctx, "Failed to persist store",
			applog.FieldOperation, op,
			applog.FieldError, err)
	}
}
