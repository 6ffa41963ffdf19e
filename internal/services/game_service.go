package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gameradar/internal/catalog"
	"gameradar/internal/core"
	"gameradar/internal/csvcodec"
	"gameradar/internal/log"
	"gameradar/internal/roblox"
	"gameradar/internal/sheets"
)

// GameService runs the user-facing flows that span the catalog and the
// outside world: adding a game from its URL, CSV import/export and the
// sheet mirror.
type GameService struct {
	catalog *catalog.Catalog
	source  roblox.Source
	mirror  sheets.RowWriter
	newID   func() string
	now     func() time.Time
	logger  *log.Logger
}

type Option func(*GameService)

// WithSheetMirror enables MirrorToSheet.
func WithSheetMirror(w sheets.RowWriter) Option {
	return func(s *GameService) { s.mirror = w }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *GameService) { s.newID = fn }
}

func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *GameService) { s.logger = l }
}

func NewGameService(cat *catalog.Catalog, source roblox.Source, opts ...Option) *GameService {
	s := &GameService{
		catalog: cat,
		source:  source,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  log.Default(log.ComponentService),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddGame resolves a Roblox game page URL and files the game under the
// Default category. The catalog is untouched unless every lookup succeeds.
func (s *GameService) AddGame(ctx context.Context, rawURL string) (core.Game, error) {
	pageURL := strings.TrimSpace(rawURL)
	placeID, err := core.ParsePlaceURL(pageURL)
	if err != nil {
		return core.Game{}, err
	}

	if _, _, found := s.catalog.FindGame(placeID); found {
		return core.Game{}, core.ErrDuplicate
	}

	universeID, err := s.source.ResolveUniverse(ctx, placeID)
	if err != nil {
		return core.Game{}, fmt.Errorf("resolve universe for place %s: %w", placeID, err)
	}

	infos, err := s.source.GetGameInfo(ctx, []string{universeID})
	if err != nil {
		return core.Game{}, fmt.Errorf("fetch game info: %w", err)
	}
	info, ok := infos[universeID]
	if !ok {
		return core.Game{}, &core.UpstreamError{Message: "Game info missing"}
	}

	thumb := s.source.GetThumbnail(ctx, universeID)

	g, err := core.NewGame(placeID, universeID, info.Name, pageURL, thumb, info.LastUpdated)
	if err != nil {
		return core.Game{}, err
	}
	if err := s.catalog.AddGame(ctx, g); err != nil {
		return core.Game{}, err
	}
	return g, nil
}

// ImportResult summarizes what an import replaced the store with.
type ImportResult struct {
	Categories int `json:"categories"`
	Games      int `json:"games"`
}

// Import replaces the whole store with the categories in text. A parse
// failure leaves the store as it was.
func (s *GameService) Import(ctx context.Context, text string) (ImportResult, error) {
	cats, err := csvcodec.Decode(text, s.newID)
	if err != nil {
		return ImportResult{}, err
	}
	s.catalog.Replace(ctx, cats)

	snap := s.catalog.Snapshot()
	res := ImportResult{Categories: len(snap.Categories), Games: snap.TotalGames()}
	s.logger.InfoContext(ctx, "Store imported",
		log.FieldOperation, log.OpImport,
		"categories", res.Categories,
		"games", res.Games)
	return res, nil
}

// Export renders the store as CSV and suggests a file name for it.
func (s *GameService) Export() (text, fileName string) {
	snap := s.catalog.Snapshot()
	return csvcodec.Encode(snap.Categories), csvcodec.FileName(s.now())
}

// MirrorToSheet overwrites the configured sheet with the export rows and
// returns the number of data rows written.
func (s *GameService) MirrorToSheet(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, sheets.ErrNotConfigured
	}
	rows := csvcodec.Table(s.catalog.Snapshot().Categories)
	if err := s.mirror.ReplaceRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("mirror to sheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Store mirrored to sheet", log.FieldOperation, log.OpExport, "rows", len(rows)-1)
	return len(rows) - 1, nil
}
