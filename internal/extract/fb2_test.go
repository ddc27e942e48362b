package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/m3rciful/readerbot/internal/book"
)

const fb2Sample = `<?xml version="1.0" encoding="utf-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:x="urn:other">
  <description>
    <title-info>
      <book-title>The  <emphasis>Quiet</emphasis>
        House</book-title>
    </title-info>
  </description>
  <body>
    <section>
      <title><p>Chapter One</p></title>
      <p>First <strong>bold</strong> line.</p>
      <x:p>foreign paragraph</x:p>
      <p>Second &amp; last.</p>
    </section>
  </body>
</FictionBook>`

func TestFB2Paragraphs(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(fb2Sample), book.FormatFB2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"Chapter One", "First bold line.", "Second & last."}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("paragraphs = %q, want %q", doc.Paragraphs, want)
	}
	for i := range want {
		if doc.Paragraphs[i] != want[i] {
			t.Fatalf("paragraph %d = %q, want %q", i, doc.Paragraphs[i], want[i])
		}
	}
	if doc.Title != "The Quiet House" {
		t.Fatalf("title = %q", doc.Title)
	}
	if doc.Format != book.FormatFB2 {
		t.Fatalf("format = %q", doc.Format)
	}
}

func TestFB2LegacyEncoding(t *testing.T) {
	head := `<?xml version="1.0" encoding="windows-1251"?><FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0"><body><p>`
	tail := `</p></body></FictionBook>`
	data := append([]byte(head), 0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2)
	data = append(data, tail...)

	paras, err := Extract(context.Background(), data, book.FormatFB2)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(paras) != 1 || paras[0] != "Привет" {
		t.Fatalf("paragraphs = %q", paras)
	}
}

func TestFB2Deterministic(t *testing.T) {
	a, err := Extract(context.Background(), []byte(fb2Sample), book.FormatFB2)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	b, err := Extract(context.Background(), []byte(fb2Sample), book.FormatFB2)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if strings.Join(a, "|") != strings.Join(b, "|") {
		t.Fatalf("extraction differs: %q vs %q", a, b)
	}
}

func TestFB2Corrupt(t *testing.T) {
	cases := map[string]string{
		"empty":     "",
		"truncated": `<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0"><body><p>open`,
		"wrong":     `<html><body><p>x</p></body></html>`,
	}
	for name, input := range cases {
		_, err := Extract(context.Background(), []byte(input), book.FormatFB2)
		if !errors.Is(err, book.ErrCorruptDocument) {
			t.Fatalf("%s: err = %v, want corrupt document", name, err)
		}
	}
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := Extract(context.Background(), []byte("x"), book.Format("pdf"))
	if !errors.Is(err, book.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}
