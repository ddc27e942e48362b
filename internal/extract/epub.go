package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/m3rciful/readerbot/core/logger"
	"github.com/m3rciful/readerbot/internal/book"
)

const containerPath = "META-INF/container.xml"

// maxEntryBytes bounds a single decompressed archive entry.
var maxEntryBytes int64 = 32 << 20

var errEntryTooLarge = errors.New("entry exceeds size limit")

type epubAdapter struct{}

// parse walks the archive in listing order and collects paragraph and heading text
// from every markup entry. Unreadable entries are skipped.
func (epubAdapter) parse(ctx context.Context, data []byte) (Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, book.Corrupt(book.FormatEPUB, err)
	}

	var doc Document
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		if !isMarkupEntry(f.Name) {
			continue
		}
		paras, err := entryParagraphs(f)
		if err != nil {
			logger.Warn(ctx, "extract", "epub.entry.skip",
				slog.String("entry", logger.SanitizeLimit(f.Name, 128)),
				slog.String("err", err.Error()),
			)
			continue
		}
		doc.Paragraphs = append(doc.Paragraphs, paras...)
	}
	doc.Title = epubTitle(ctx, zr, data)
	return doc, nil
}

func isMarkupEntry(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".xhtml") || strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".htm")
}

func entryParagraphs(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	if int64(len(raw)) > maxEntryBytes {
		return nil, errEntryTooLarge
	}
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse entry: %w", err)
	}

	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && isBlock(n.DataAtom) {
			if text := collapseSpace(nodeText(n)); text != "" {
				out = append(out, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// epubTitle reads dc:title from the package document; empty when the archive has
// no usable container or package.
func epubTitle(ctx context.Context, zr *zip.Reader, data []byte) (title string) {
	if !hasEntry(zr, containerPath) {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn(ctx, "extract", "epub.title.skip", slog.Any("err", r))
			title = ""
		}
	}()
	r, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || len(r.Rootfiles) == 0 {
		return ""
	}
	return collapseSpace(r.Rootfiles[0].Title)
}

func hasEntry(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
