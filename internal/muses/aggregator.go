package muses

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"muses/internal/database"
	"muses/internal/goodreads"
	"muses/internal/lastfm"
	"muses/internal/letterboxd"
	"muses/internal/literal"

	"golang.org/x/sync/errgroup"
)

var ErrSourceUnavailable = errors.New("source not configured")

// BookService is the part of the literal client the dashboard uses.
type BookService interface {
	Login(ctx context.Context, email, password string) (*literal.LoginResult, error)
	GetMyReadingStates(ctx context.Context) ([]literal.ReadingState, error)
	GetReadDates(ctx context.Context, bookID, profileID string) ([]literal.ReadDate, error)
}

type BookList interface {
	GetRecentBooks(ctx context.Context) ([]goodreads.Book, error)
}

type FilmFeed interface {
	GetMovies(ctx context.Context) ([]letterboxd.Film, error)
}

type MusicService interface {
	FetchTopArtists(ctx context.Context, username string, limit int) ([]lastfm.Artist, error)
}

// FetchRecorder stores section outcomes; *database.DB satisfies it.
type FetchRecorder interface {
	RecordFetch(ctx context.Context, rec database.FetchRecord) error
}

// Sources holds one adapter per source. Nil entries make their sections
// fail with ErrSourceUnavailable.
type Sources struct {
	Books    BookService
	BookList BookList
	Films    FilmFeed
	Music    MusicService
}

type Options struct {
	LiteralEmail    string
	LiteralPassword string
	LastFMUser      string
	// BookStatuses selects which reading states the literal section shows.
	BookStatuses []literal.ReadingStatus
	// ReadDateConcurrency caps parallel read-date lookups.
	ReadDateConcurrency int
	ProductionMode      bool
}

func DefaultOptions() Options {
	return Options{
		BookStatuses:        []literal.ReadingStatus{literal.StatusIsReading, literal.StatusFinished},
		ReadDateConcurrency: 8,
	}
}

type Aggregator struct {
	src      Sources
	opts     Options
	recorder FetchRecorder
	logger   *log.Logger
	now      func() time.Time

	// serializes literal logins, whose token lives on the shared client
	bookMu sync.Mutex
}

// NewAggregator wires the adapters. recorder may be nil.
func NewAggregator(src Sources, opts Options, recorder FetchRecorder, logger *log.Logger) *Aggregator {
	if opts.ReadDateConcurrency <= 0 {
		opts.ReadDateConcurrency = DefaultOptions().ReadDateConcurrency
	}
	return &Aggregator{
		src:      src,
		opts:     opts,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Dashboard fetches every section in parallel and returns them in config
// order. It never fails: each section carries its own outcome.
func (a *Aggregator) Dashboard(ctx context.Context, configs []SectionConfig) []Section {
	sections := make([]Section, len(configs))
	var g errgroup.Group
	for i, cfg := range configs {
		g.Go(func() error {
			sections[i] = a.Section(ctx, cfg)
			return nil
		})
	}
	g.Wait()
	return sections
}

// Section fetches a single section. Failures are logged, recorded and turned
// into an empty section with Err set.
func (a *Aggregator) Section(ctx context.Context, cfg SectionConfig) Section {
	start := time.Now()
	sec := Section{Config: cfg}

	var err error
	switch cfg.Source {
	case SourceLiteral:
		sec.Books, err = a.literalBooks(ctx, cfg)
	case SourceGoodreads:
		sec.Books, err = a.listBooks(ctx, cfg)
	case SourceLetterboxd:
		sec.Films, err = a.films(ctx, cfg)
	case SourceLastFM:
		sec.Artists, err = a.artists(ctx, cfg)
	default:
		err = fmt.Errorf("unknown source %q", cfg.Source)
	}
	sec.Duration = time.Since(start)

	if err != nil {
		a.logger.Printf("Error fetching %s section %q: %v", cfg.Source, sec.Title(), err)
		sec.Books, sec.Films, sec.Artists = nil, nil, nil
		sec.Err = err
	} else if !a.opts.ProductionMode {
		a.logger.Printf("Fetched %d items for %s section %q in %v", sec.Len(), cfg.Source, sec.Title(), sec.Duration)
	}

	a.record(ctx, sec)
	return sec
}

func (a *Aggregator) record(ctx context.Context, sec Section) {
	if a.recorder == nil {
		return
	}
	rec := database.FetchRecord{
		Source:    string(sec.Config.Source),
		OK:        sec.Err == nil,
		ItemCount: sec.Len(),
		Duration:  sec.Duration,
	}
	if sec.Err != nil {
		rec.Error = sec.Err.Error()
	}
	// the page has already been computed; a cancelled request should not drop the record
	if err := a.recorder.RecordFetch(context.WithoutCancel(ctx), rec); err != nil {
		a.logger.Printf("Error recording fetch for %s: %v", rec.Source, err)
	}
}

// literalBooks logs in, loads reading states, then looks up read dates for
// every book concurrently. Any failure fails the whole section so no partial
// reading data is shown.
func (a *Aggregator) literalBooks(ctx context.Context, cfg SectionConfig) ([]Book, error) {
	if a.src.Books == nil {
		return nil, ErrSourceUnavailable
	}

	a.bookMu.Lock()
	login, err := a.src.Books.Login(ctx, a.opts.LiteralEmail, a.opts.LiteralPassword)
	if err != nil {
		a.bookMu.Unlock()
		return nil, fmt.Errorf("logging in: %w", err)
	}
	states, err := a.src.Books.GetMyReadingStates(ctx)
	a.bookMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("loading reading states: %w", err)
	}
	states = FilterStatuses(states, a.opts.BookStatuses)

	dates := make([][]literal.ReadDate, len(states))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.ReadDateConcurrency)
	for i, st := range states {
		bookID, profileID := StateBookID(st), st.ProfileID
		if profileID == "" {
			profileID = login.Profile.ID
		}
		g.Go(func() error {
			d, err := a.src.Books.GetReadDates(gctx, bookID, profileID)
			if err != nil {
				return fmt.Errorf("loading read dates for %s: %w", bookID, err)
			}
			dates[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byBook := make(map[string][]literal.ReadDate, len(states))
	for i, st := range states {
		id := StateBookID(st)
		byBook[id] = append(byBook[id], dates[i]...)
	}

	books := BooksFromReadingStates(states, byBook, a.now())
	SortBooks(books)
	return limit(books, cfg.Limit), nil
}

func (a *Aggregator) listBooks(ctx context.Context, cfg SectionConfig) ([]Book, error) {
	if a.src.BookList == nil {
		return nil, ErrSourceUnavailable
	}
	rows, err := a.src.BookList.GetRecentBooks(ctx)
	if err != nil {
		return nil, err
	}
	return limit(BooksFromList(rows), cfg.Limit), nil
}

func (a *Aggregator) films(ctx context.Context, cfg SectionConfig) ([]letterboxd.Film, error) {
	if a.src.Films == nil {
		return nil, ErrSourceUnavailable
	}
	films, err := a.src.Films.GetMovies(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.MinRating != nil {
		films = letterboxd.FilterMinRating(films, *cfg.MinRating)
	}
	return limit(films, cfg.Limit), nil
}

func (a *Aggregator) artists(ctx context.Context, cfg SectionConfig) ([]lastfm.Artist, error) {
	if a.src.Music == nil {
		return nil, ErrSourceUnavailable
	}
	artists, err := a.src.Music.FetchTopArtists(ctx, a.opts.LastFMUser, cfg.fetchLimit())
	if err != nil {
		return nil, err
	}
	return limit(artists, cfg.Limit), nil
}
