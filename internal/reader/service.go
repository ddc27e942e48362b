// Package reader drives uploads, reading and page navigation for each user.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/internal/book"
	"github.com/m3rciful/readerbot/internal/extract"
	"github.com/m3rciful/readerbot/internal/locker"
	"github.com/m3rciful/readerbot/internal/paginate"
	"github.com/m3rciful/readerbot/internal/registry"
	"github.com/m3rciful/readerbot/internal/session"
	"github.com/m3rciful/readerbot/internal/storage"
)

// Direction selects the navigation step.
type Direction int

const (
	// Next moves one page forward.
	Next Direction = iota + 1
	// Prev moves one page back.
	Prev
)

func (d Direction) String() string {
	switch d {
	case Next:
		return "next"
	case Prev:
		return "prev"
	}
	return "unknown"
}

// PageView is what the transport renders for one page.
type PageView struct {
	BookID  string
	Title   string
	Content string
	// Page is zero based; Pages counts pages that hold content.
	Page    int
	Pages   int
	HasNext bool
	HasPrev bool
	// IsEnd is set on the last content page and on the end-of-book signal.
	IsEnd bool
	// PastEnd marks the end-of-book signal itself; Content is empty.
	PastEnd bool
}

// Upload carries a received document.
type Upload struct {
	UserID      int64
	DisplayName string
	Filename    string
	MIMEType    string
	Data        []byte
}

// BookInfo summarizes the user's current book.
type BookInfo struct {
	book.Book
	// Pages is zero when the book has no cached session.
	Pages int
}

// Stats reports process level counters.
type Stats struct {
	ActiveSessions int
}

// Options configures New.
type Options struct {
	Registry registry.Registry
	Storage  storage.Store
	Sessions *session.Store
	Locker   locker.Locker
	PageSize int
	// OpTimeout bounds a single operation; zero disables the bound.
	OpTimeout time.Duration
}

// Service is the navigation controller. All operations for one user are serialized.
type Service struct {
	registry  registry.Registry
	blobs     storage.Store
	sessions  *session.Store
	locks     locker.Locker
	pages     paginate.Paginator
	opTimeout time.Duration
}

// New wires a Service. Sessions and Locker default to in-process implementations.
func New(opts Options) *Service {
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore()
	}
	if opts.Locker == nil {
		opts.Locker = locker.NewMemory()
	}
	return &Service{
		registry:  opts.Registry,
		blobs:     opts.Storage,
		sessions:  opts.Sessions,
		locks:     opts.Locker,
		pages:     paginate.New(opts.PageSize),
		opTimeout: opts.OpTimeout,
	}
}

// PageSize reports paragraphs per page.
func (s *Service) PageSize() int { return s.pages.Size() }

func (s *Service) withUser(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	defer unlock()
	return fn(ctx)
}

// Start registers the user when unknown and reports whether it was created.
func (s *Service) Start(ctx context.Context, userID int64, displayName string) (bool, error) {
	var created bool
	err := s.withUser(ctx, userID, func(ctx context.Context) error {
		var err error
		created, err = s.registry.EnsureUser(ctx, newUser(userID, displayName))
		return book.Persistence("ensure user", err)
	})
	return created, err
}

// OnUpload extracts, stores and registers an uploaded document and makes it the
// user's current book. A corrupt document creates no record.
func (s *Service) OnUpload(ctx context.Context, up Upload) (book.Book, error) {
	var stored book.Book
	err := s.withUser(ctx, up.UserID, func(ctx context.Context) error {
		start := time.Now()
		format, err := book.DetectFormat(up.Filename, up.MIMEType)
		if err != nil {
			return err
		}
		doc, err := extract.Parse(ctx, up.Data, format)
		if err != nil {
			return err
		}
		if len(doc.Paragraphs) == 0 {
			return book.Corrupt(format, errors.New("no readable text"))
		}

		if _, err := s.registry.EnsureUser(ctx, newUser(up.UserID, up.DisplayName)); err != nil {
			return book.Persistence("ensure user", err)
		}
		id := book.NewID(up.UserID, up.Data)
		key := book.StorageKey(up.UserID, id, format)
		_, err = s.registry.GetBook(ctx, id)
		isNew := errors.Is(err, book.ErrBookNotFound)
		if err != nil && !isNew {
			return book.Persistence("get book", err)
		}
		if err := s.blobs.Put(ctx, key, up.Data, format.ContentType()); err != nil {
			return book.Persistence("store file", err)
		}
		title := doc.Title
		if title == "" {
			title = book.TitleFromFilename(up.Filename)
		}
		stored, err = s.registry.UpsertBook(ctx, book.Book{
			ID:         id,
			OwnerID:    up.UserID,
			StorageKey: key,
			Filename:   up.Filename,
			Title:      title,
			Format:     format,
		})
		if err != nil {
			err = book.Persistence("upsert book", err)
			if isNew {
				err = errors.Join(err, s.discardUpload(ctx, key, ""))
			}
			return err
		}
		if err := s.registry.SetCurrentBook(ctx, up.UserID, id); err != nil {
			err = book.Persistence("set current book", err)
			if isNew {
				err = errors.Join(err, s.discardUpload(ctx, key, id))
			}
			return err
		}
		s.sessions.Put(up.UserID, session.Session{
			BookID:     id,
			Title:      title,
			Format:     format,
			Paragraphs: doc.Paragraphs,
			Page:       stored.CurrentPage,
		})
		logger.Info(ctx, "reader", "upload.done",
			slog.String("book_id", id),
			slog.Int("page", stored.CurrentPage),
			slog.String("format", string(format)),
			slog.Int("count", len(doc.Paragraphs)),
			slog.Int("bytes", len(up.Data)),
			slog.Duration("duration", logger.Took(start)),
		)
		return nil
	})
	return stored, err
}

// discardUpload removes what a failed upload of a new book left behind. bookID is
// empty when no record was written.
func (s *Service) discardUpload(ctx context.Context, key, bookID string) error {
	var errs []error
	if bookID != "" {
		if err := s.registry.RemoveBook(ctx, bookID); err != nil {
			errs = append(errs, book.Persistence("remove book", err))
		}
	}
	if err := s.blobs.Delete(ctx, key); err != nil {
		errs = append(errs, book.Persistence("delete file", err))
	}
	if len(errs) > 0 {
		logger.Warn(ctx, "reader", "upload.discard.fail",
			slog.String("book_id", bookID),
			slog.String("err", errors.Join(errs...).Error()),
		)
	}
	return errors.Join(errs...)
}

// OnReadRequest renders the current page, rebuilding the session from durable
// state when it is not cached.
func (s *Service) OnReadRequest(ctx context.Context, userID int64) (PageView, error) {
	var view PageView
	err := s.withUser(ctx, userID, func(ctx context.Context) error {
		sess, err := s.resolve(ctx, userID)
		if err != nil {
			return err
		}
		view = s.render(ctx, sess)
		return nil
	})
	return view, err
}

// OnNavigate moves one page in dir and persists the new position before rendering.
// A failed write restores the cached position.
func (s *Service) OnNavigate(ctx context.Context, userID int64, dir Direction) (PageView, error) {
	var view PageView
	err := s.withUser(ctx, userID, func(ctx context.Context) error {
		sess, err := s.resolve(ctx, userID)
		if errors.Is(err, book.ErrNoActiveBook) {
			return book.ErrNoActiveSession
		}
		if err != nil {
			return err
		}

		var delta int
		switch dir {
		case Next:
			if s.pages.IsEnd(len(sess.Paragraphs), sess.Page) {
				view = s.render(ctx, sess)
				return nil
			}
			delta = 1
		case Prev:
			if sess.Page == 0 {
				return book.ErrAlreadyAtStart
			}
			delta = -1
		default:
			return fmt.Errorf("unknown direction %d", dir)
		}

		prev := sess.Page
		page, err := s.sessions.Advance(userID, delta)
		if err != nil {
			return err
		}
		if err := s.registry.SetPage(ctx, sess.BookID, page); err != nil {
			s.sessions.SetPage(userID, prev)
			logger.Warn(ctx, "reader", "navigate.rollback",
				slog.String("book_id", sess.BookID),
				slog.Int("page", prev),
				slog.String("err", err.Error()),
			)
			return book.Persistence("set page", err)
		}
		sess.Page = page
		logger.Debug(ctx, "reader", "navigate",
			slog.String("book_id", sess.BookID),
			slog.Int("page", page),
			slog.String("direction", dir.String()),
		)
		view = s.render(ctx, sess)
		return nil
	})
	return view, err
}

// CurrentBook describes the user's current book.
func (s *Service) CurrentBook(ctx context.Context, userID int64) (BookInfo, error) {
	var info BookInfo
	err := s.withUser(ctx, userID, func(ctx context.Context) error {
		id, err := s.registry.CurrentBookID(ctx, userID)
		if err != nil {
			return fmt.Errorf("current book: %w", err)
		}
		if id == "" {
			return book.ErrNoActiveBook
		}
		b, err := s.registry.GetBook(ctx, id)
		if errors.Is(err, book.ErrBookNotFound) {
			return book.ErrNoActiveBook
		}
		if err != nil {
			return fmt.Errorf("get book: %w", err)
		}
		info.Book = b
		if sess, ok := s.sessions.Get(userID); ok && sess.BookID == b.ID {
			info.CurrentPage = sess.Page
			info.Pages = s.pages.Count(len(sess.Paragraphs))
		}
		return nil
	})
	return info, err
}

// Stats returns process counters.
func (s *Service) Stats() Stats {
	return Stats{ActiveSessions: s.sessions.Len()}
}

// resolve returns the cached session or rebuilds it from the registry and storage.
func (s *Service) resolve(ctx context.Context, userID int64) (session.Session, error) {
	if sess, ok := s.sessions.Get(userID); ok {
		return sess, nil
	}
	start := time.Now()
	id, err := s.registry.CurrentBookID(ctx, userID)
	if err != nil {
		return session.Session{}, fmt.Errorf("current book: %w", err)
	}
	if id == "" {
		return session.Session{}, book.ErrNoActiveBook
	}
	b, err := s.registry.GetBook(ctx, id)
	if errors.Is(err, book.ErrBookNotFound) {
		return session.Session{}, s.unavailable(ctx, userID, id, nil)
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get book: %w", err)
	}
	data, err := s.blobs.Get(ctx, b.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return session.Session{}, s.unavailable(ctx, userID, id, &b)
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("load file: %w", err)
	}
	doc, err := extract.Parse(ctx, data, b.Format)
	if errors.Is(err, book.ErrCorruptDocument) || errors.Is(err, book.ErrUnsupportedFormat) {
		return session.Session{}, s.unavailable(ctx, userID, id, &b)
	}
	if err != nil {
		return session.Session{}, err
	}

	sess := session.Session{
		BookID:     b.ID,
		Title:      b.Title,
		Format:     b.Format,
		Paragraphs: doc.Paragraphs,
		Page:       b.CurrentPage,
	}
	s.sessions.Put(userID, sess)
	logger.Info(ctx, "reader", "session.rebuild",
		slog.String("book_id", b.ID),
		slog.Int("page", b.CurrentPage),
		slog.String("format", string(b.Format)),
		slog.Int("count", len(doc.Paragraphs)),
		slog.Duration("duration", logger.Took(start)),
	)
	return sess, nil
}

// unavailable drops a book whose file is gone and returns ErrBookUnavailable,
// joined with a persistence error when the cleanup itself failed.
func (s *Service) unavailable(ctx context.Context, userID int64, bookID string, b *book.Book) error {
	logger.Warn(ctx, "reader", "book.unavailable", slog.String("book_id", bookID))
	s.sessions.Delete(userID)
	var errs []error
	if b != nil {
		if err := s.registry.RemoveBook(ctx, bookID); err != nil {
			errs = append(errs, book.Persistence("remove book", err))
		}
		if err := s.blobs.Delete(ctx, b.StorageKey); err != nil {
			logger.Warn(ctx, "reader", "file.delete.fail",
				slog.String("book_id", bookID),
				slog.String("err", err.Error()),
			)
		}
	}
	if err := s.registry.ClearCurrentBook(ctx, userID); err != nil {
		errs = append(errs, book.Persistence("clear current book", err))
	}
	return errors.Join(append([]error{book.ErrBookUnavailable}, errs...)...)
}

func (s *Service) render(ctx context.Context, sess session.Session) PageView {
	page := s.pages.Page(sess.Paragraphs, sess.Page)
	view := PageView{
		BookID:  sess.BookID,
		Title:   sess.Title,
		Content: page.Content,
		Page:    page.Index,
		Pages:   s.pages.Count(len(sess.Paragraphs)),
		HasNext: !page.Final && !page.End,
		HasPrev: page.Index > 0,
		IsEnd:   page.Final || page.End,
		PastEnd: page.End,
	}
	if view.IsEnd {
		if err := s.registry.MarkRead(ctx, sess.BookID); err != nil {
			logger.Warn(ctx, "reader", "mark_read.fail",
				slog.String("book_id", sess.BookID),
				slog.String("err", err.Error()),
			)
		}
	}
	return view
}

func newUser(id int64, displayName string) book.User {
	u := book.User{ID: id}
	if name := strings.TrimSpace(displayName); name != "" {
		u.DisplayName = &name
	}
	return u
}
