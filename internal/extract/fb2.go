package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/m3rciful/readerbot/internal/book"
)

const fb2Namespace = "http://www.gribuser.ru/xml/fictionbook/2.0"

type fb2Adapter struct{}

// parse collects every FB2 <p> in document order. Text of nested inline markup is
// flattened into its paragraph.
func (fb2Adapter) parse(ctx context.Context, data []byte) (Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Entity = xml.HTMLEntity

	var (
		doc     Document
		rooted  bool
		path    []string
		open    []int
		texts   []*strings.Builder
		title   strings.Builder
		inTitle bool
	)
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Document{}, err
			}
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Document{}, book.Corrupt(book.FormatFB2, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !rooted {
				if t.Name.Local != "FictionBook" {
					return Document{}, book.Corrupt(book.FormatFB2, errors.New("missing FictionBook root"))
				}
				rooted = true
			}
			path = append(path, t.Name.Local)
			if t.Name.Space == fb2Namespace && t.Name.Local == "p" {
				open = append(open, len(doc.Paragraphs))
				texts = append(texts, &strings.Builder{})
				doc.Paragraphs = append(doc.Paragraphs, "")
			}
			inTitle = inBookTitle(path)
		case xml.CharData:
			for _, b := range texts {
				b.Write(t)
			}
			if inTitle {
				title.Write(t)
			}
		case xml.EndElement:
			if t.Name.Space == fb2Namespace && t.Name.Local == "p" && len(open) > 0 {
				last := len(open) - 1
				doc.Paragraphs[open[last]] = texts[last].String()
				open, texts = open[:last], texts[:last]
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
			inTitle = inBookTitle(path)
		}
	}
	if !rooted {
		return Document{}, book.Corrupt(book.FormatFB2, errors.New("empty document"))
	}
	doc.Title = collapseSpace(title.String())
	return doc, nil
}

// inBookTitle reports whether path sits inside FictionBook/description/title-info/book-title.
func inBookTitle(path []string) bool {
	return len(path) >= 4 && path[1] == "description" && path[2] == "title-info" && path[3] == "book-title"
}
