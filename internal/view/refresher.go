package view

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"bookbank/internal/lending"

	"github.com/rs/zerolog"
)

// Options configures a Refresher.
type Options struct {
	Out        io.Writer
	Location   *time.Location
	ImageCheck ImageCheck
	Logger     zerolog.Logger
}

// Refresher re-renders regions from freshly fetched data. Fetch failures are
// logged, never alerted, and leave the region untouched.
type Refresher struct {
	source lending.Source
	page   *Page
	books  *Region
	out    io.Writer
	loc    *time.Location
	check  ImageCheck
	logger zerolog.Logger

	mu    sync.Mutex
	chats map[lending.RequestID]*Region
}

// NewRefresher creates a refresher with an empty page.
func NewRefresher(source lending.Source, opts Options) *Refresher {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{
		source: source,
		page:   NewPage(),
		books:  NewRegion("books", opts.Out),
		out:    opts.Out,
		loc:    loc,
		check:  opts.ImageCheck,
		logger: opts.Logger,
		chats:  make(map[lending.RequestID]*Region),
	}
}

func (r *Refresher) Page() *Page { return r.page }

func (r *Refresher) Books() *Region { return r.books }

// Chat returns the region of a request's chat thread, creating it on first use.
func (r *Refresher) Chat(id lending.RequestID) *Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	region, ok := r.chats[id]
	if !ok {
		region = NewRegion(fmt.Sprintf("chat %d", id), r.out)
		r.chats[id] = region
	}
	return region
}

// TrackBooks puts the book list on the page without loading it, so that the
// next full reload draws it.
func (r *Refresher) TrackBooks() {
	r.page.Register(r.books.Name(), r.RefreshBooks)
}

// ShowBooks puts the book list on the page and loads it.
func (r *Refresher) ShowBooks(ctx context.Context) error {
	r.TrackBooks()
	return r.RefreshBooks(ctx)
}

// ShowChat puts a chat thread on the page and loads it.
func (r *Refresher) ShowChat(ctx context.Context, id lending.RequestID) error {
	r.page.Register(r.Chat(id).Name(), func(ctx context.Context) error {
		return r.RefreshChat(ctx, id)
	})
	return r.RefreshChat(ctx, id)
}

// RefreshBooks fetches the whole collection and replaces the book list.
func (r *Refresher) RefreshBooks(ctx context.Context) error {
	books, err := r.source.ListBooks(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to load books")
		return err
	}

	if err := r.books.Replace(RenderBooks(ctx, books, r.check)); err != nil {
		return err
	}
	r.logger.Debug().Int("count", len(books)).Msg("books fetched and displayed")
	return nil
}

// RefreshChat fetches a request's messages and replaces its chat thread.
func (r *Refresher) RefreshChat(ctx context.Context, id lending.RequestID) error {
	messages, err := r.source.ListChat(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("request", int64(id)).Msg("failed to load messages")
		return err
	}
	for _, m := range messages {
		if m.CreatedAt.Invalid() {
			r.logger.Warn().Int64("request", int64(id)).Int64("message", m.ID).
				Str("created_at", m.CreatedAt.Raw).Msg("unrecognised message time")
		}
	}
	return r.Chat(id).Replace(RenderChat(messages, r.loc))
}

// Reload re-fetches everything on the page.
func (r *Refresher) Reload(ctx context.Context) error {
	return r.page.Reload(ctx)
}
