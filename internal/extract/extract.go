// Package extract turns raw FB2 and EPUB bytes into an ordered list of paragraphs.
//
// Extraction is deterministic: the same bytes always produce the same sequence, which
// lets the reader rebuild a session from stored files after a restart.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/internal/book"
)

// Document is the decoded form of a book.
type Document struct {
	Format     book.Format
	Title      string
	Paragraphs []string
}

type adapter interface {
	parse(ctx context.Context, data []byte) (Document, error)
}

var adapters = map[book.Format]adapter{
	book.FormatFB2:  fb2Adapter{},
	book.FormatEPUB: epubAdapter{},
}

// Parse decodes data declared as format.
func Parse(ctx context.Context, data []byte, format book.Format) (Document, error) {
	a, ok := adapters[format]
	if !ok {
		return Document{}, fmt.Errorf("%w: %q", book.ErrUnsupportedFormat, format)
	}
	start := time.Now()
	doc, err := a.parse(ctx, data)
	if err != nil {
		logger.Warn(ctx, "extract", "extract.fail",
			slog.String("format", string(format)),
			slog.Int("bytes", len(data)),
			slog.String("err", err.Error()),
		)
		return Document{}, err
	}
	doc.Format = format
	doc.Title = strings.TrimSpace(doc.Title)
	logger.Debug(ctx, "extract", "extract.done",
		slog.String("format", string(format)),
		slog.Int("count", len(doc.Paragraphs)),
		slog.Duration("duration", logger.Took(start)),
	)
	return doc, nil
}

// Extract returns only the paragraph sequence of data.
func Extract(ctx context.Context, data []byte, format book.Format) ([]string, error) {
	doc, err := Parse(ctx, data, format)
	if err != nil {
		return nil, err
	}
	return doc.Paragraphs, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
