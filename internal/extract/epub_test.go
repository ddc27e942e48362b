package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/m3rciful/readerbot/internal/book"
)

type zipEntry struct {
	name, body string
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const containerXML = `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const contentOPF = `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Sea Stories</dc:title>
  </metadata>
  <manifest>
    <item id="c1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="c2" href="ch2.HTML" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="c1"/>
    <itemref idref="c2"/>
  </spine>
</package>`

func sampleEPUB(t *testing.T) []byte {
	return buildZip(t, []zipEntry{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", contentOPF},
		{"OEBPS/ch1.xhtml", `<html><body><h1>One</h1><p>Hello   <em>there</em>,<br/>sailor.</p><p>   </p><div>ignored div</div></body></html>`},
		{"OEBPS/style.css", `p { margin: 0 }`},
		{"OEBPS/ch2.HTML", `<html><body><h2>Two</h2><p>Goodbye.</p></body></html>`},
	})
}

func TestEPUBParagraphsInArchiveOrder(t *testing.T) {
	doc, err := Parse(context.Background(), sampleEPUB(t), book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"One", "Hello there, sailor.", "Two", "Goodbye."}
	if len(doc.Paragraphs) != len(want) {
		t.Fatalf("paragraphs = %q, want %q", doc.Paragraphs, want)
	}
	for i := range want {
		if doc.Paragraphs[i] != want[i] {
			t.Fatalf("paragraph %d = %q, want %q", i, doc.Paragraphs[i], want[i])
		}
	}
	if doc.Title != "Sea Stories" {
		t.Fatalf("title = %q", doc.Title)
	}
}

func TestEPUBWithoutPackageHasNoTitle(t *testing.T) {
	data := buildZip(t, []zipEntry{{"text/a.htm", `<p>only</p>`}})
	doc, err := Parse(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "" || len(doc.Paragraphs) != 1 || doc.Paragraphs[0] != "only" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestEPUBMissingPackageFileHasNoTitle(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/ch1.xhtml", `<p>still here</p>`},
	})
	doc, err := Parse(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Title != "" || len(doc.Paragraphs) != 1 || doc.Paragraphs[0] != "still here" {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestEPUBFollowsListingNotSpine(t *testing.T) {
	reversed := strings.Replace(contentOPF, `<itemref idref="c1"/>
    <itemref idref="c2"/>`, `<itemref idref="c2"/>
    <itemref idref="c1"/>`, 1)
	data := buildZip(t, []zipEntry{
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", reversed},
		{"OEBPS/ch1.xhtml", `<p>first listed</p>`},
		{"OEBPS/ch2.HTML", `<p>first in spine</p>`},
	})
	doc, err := Parse(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Paragraphs) != 2 || doc.Paragraphs[0] != "first listed" || doc.Paragraphs[1] != "first in spine" {
		t.Fatalf("paragraphs = %q", doc.Paragraphs)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestEPUBSkipsUnreadableEntry(t *testing.T) {
	const unknownMethod = 99
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(unknownMethod, func(w io.Writer) (io.WriteCloser, error) {
		return nopWriteCloser{w}, nil
	})
	for _, e := range []struct {
		name, body string
		method     uint16
	}{
		{"a.xhtml", `<p>before</p>`, zip.Deflate},
		{"b.xhtml", `<p>unreadable</p>`, unknownMethod},
		{"c.xhtml", `<p>after</p>`, zip.Store},
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: e.method})
		if err != nil {
			t.Fatalf("create %s: %v", e.name, err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatalf("write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	doc, err := Parse(context.Background(), buf.Bytes(), book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Paragraphs) != 2 || doc.Paragraphs[0] != "before" || doc.Paragraphs[1] != "after" {
		t.Fatalf("paragraphs = %q", doc.Paragraphs)
	}
}

func TestEPUBSkipsOversizedEntry(t *testing.T) {
	prev := maxEntryBytes
	maxEntryBytes = 64
	t.Cleanup(func() { maxEntryBytes = prev })

	data := buildZip(t, []zipEntry{
		{"big.xhtml", "<p>" + strings.Repeat("long ", 40) + "</p>"},
		{"small.xhtml", `<p>fits</p>`},
	})
	doc, err := Parse(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Paragraphs) != 1 || doc.Paragraphs[0] != "fits" {
		t.Fatalf("paragraphs = %q", doc.Paragraphs)
	}
}

func TestEPUBDeterministic(t *testing.T) {
	data := sampleEPUB(t)
	a, err := Extract(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	b, err := Extract(context.Background(), data, book.FormatEPUB)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("paragraph %d differs", i)
		}
	}
}

func TestEPUBCorruptArchive(t *testing.T) {
	_, err := Extract(context.Background(), []byte("definitely not a zip"), book.FormatEPUB)
	if !errors.Is(err, book.ErrCorruptDocument) {
		t.Fatalf("err = %v, want corrupt document", err)
	}
}
