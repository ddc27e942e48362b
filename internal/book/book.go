// Package book holds the reader domain model shared by the extractor, registry and
// navigation layers.
package book

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Format is the declared container format of an uploaded book.
type Format string

const (
	// FormatFB2 is FictionBook 2 XML.
	FormatFB2 Format = "fb2"
	// FormatEPUB is a zipped EPUB publication.
	FormatEPUB Format = "epub"
)

// Ext returns the file extension including the leading dot.
func (f Format) Ext() string { return "." + string(f) }

// ContentType returns the MIME type used when storing raw bytes.
func (f Format) ContentType() string {
	switch f {
	case FormatEPUB:
		return "application/epub+zip"
	case FormatFB2:
		return "application/x-fictionbook+xml"
	}
	return "application/octet-stream"
}

var mimeFormats = map[string]Format{
	"application/epub+zip":          FormatEPUB,
	"application/x-fictionbook+xml": FormatFB2,
	"application/x-fictionbook":     FormatFB2,
	"text/fb2+xml":                  FormatFB2,
}

// DetectFormat resolves the book format from the file extension, falling back to
// the declared MIME type. Anything else is ErrUnsupportedFormat.
func DetectFormat(filename, mimeType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".fb2":
		return FormatFB2, nil
	case ".epub":
		return FormatEPUB, nil
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		if f, ok := mimeFormats[strings.ToLower(mt)]; ok {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
}

// User is a messaging platform user known to the registry.
type User struct {
	ID            int64   `db:"id"`
	DisplayName   *string `db:"display_name"`
	CurrentBookID *string `db:"current_book_id"`
}

// Book is the durable record of an uploaded book.
type Book struct {
	ID          string    `db:"id"`
	OwnerID     int64     `db:"owner_id"`
	StorageKey  string    `db:"storage_key"`
	Filename    string    `db:"filename"`
	Title       string    `db:"title"`
	Format      Format    `db:"format"`
	CurrentPage int       `db:"current_page"`
	IsRead      bool      `db:"is_read"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// NewID derives a book identity from its owner and raw content, so the same file
// uploaded again by the same user maps onto the same record.
func NewID(ownerID int64, data []byte) string {
	sum := sha256.Sum256(data)
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(ownerID, 10)))
	h.Write([]byte{':'})
	h.Write(sum[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// StorageKey builds the blob key for a book.
func StorageKey(ownerID int64, id string, f Format) string {
	return strconv.FormatInt(ownerID, 10) + "/" + id + f.Ext()
}

// TitleFromFilename returns the filename without directory and extension.
func TitleFromFilename(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
