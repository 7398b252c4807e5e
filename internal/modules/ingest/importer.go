// Package ingest imports Evernote export (ENEX) files: notes are streamed out
// of the XML document one at a time, their embedded resources inlined, their
// markup sanitized, and the result persisted as posts.
package ingest

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/artwall/core/internal/models"
	"github.com/artwall/core/internal/modules/post"
	"go.uber.org/zap"
)

// ErrUnsupportedFile is returned for uploads without a recognized extension.
var ErrUnsupportedFile = errors.New("ingest: unsupported file type, expected .enex or .xml")

// enexDateLayout is Evernote's compact date format (e.g. 20230615T120000Z).
const enexDateLayout = "20060102T150405Z"

const importSource = "enex_import"

// FatalImportError means the export document itself is structurally
// unparseable. Nothing can be salvaged; the whole import is aborted.
type FatalImportError struct {
	Err error
}

func (e *FatalImportError) Error() string { return "enex parse error: " + e.Err.Error() }
func (e *FatalImportError) Unwrap() error { return e.Err }

// Result summarizes one import run. A note that fails to process adds an
// entry to Errors without stopping the run.
type Result struct {
	NotesImported int      `json:"notes_imported"`
	Errors        []string `json:"errors"`
}

// AllowedFile reports whether the uploaded filename has an accepted export
// extension.
func AllowedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".enex", ".xml":
		return true
	}
	return false
}

// noteElement mirrors one <note> element of an ENEX document.
type noteElement struct {
	Title     string            `xml:"title"`
	Content   string            `xml:"content"`
	Created   string            `xml:"created"`
	Updated   string            `xml:"updated"`
	Tags      []string          `xml:"tag"`
	Resources []resourceElement `xml:"resource"`
}

type resourceElement struct {
	Data resourceData `xml:"data"`
	Mime string       `xml:"mime"`
}

type resourceData struct {
	Hash string `xml:"hash,attr"`
	Text string `xml:",chardata"`
}

// Importer converts ENEX notes into posts.
type Importer struct {
	posts *post.Service
	log   *zap.Logger
	now   func() time.Time
}

func NewImporter(posts *post.Service, log *zap.Logger) *Importer {
	return &Importer{posts: posts, log: log, now: time.Now}
}

// ImportStream parses an ENEX document from r and persists each note as a
// post owned by authorID. Notes are decoded and released one at a time, so
// peak memory is bounded by the largest single note rather than the file
// size. A malformed note is recorded and skipped; a malformed document is
// fatal and returns a *FatalImportError.
func (imp *Importer) ImportStream(ctx context.Context, r io.Reader, authorID string) (Result, error) {
	result := Result{Errors: []string{}}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			imp.log.Error("enex document unparseable", zap.Error(err))
			return result, &FatalImportError{Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "note" {
			continue
		}

		var note noteElement
		if err := dec.DecodeElement(&note, &start); err != nil {
			// broken markup inside a note corrupts the token stream too
			imp.log.Error("enex document unparseable", zap.Error(err))
			return result, &FatalImportError{Err: err}
		}

		if err := imp.processNote(ctx, note, authorID); err != nil {
			msg := fmt.Sprintf("error processing note %q: %v", noteLabel(note), err)
			imp.log.Error("note import failed", zap.String("note", noteLabel(note)), zap.Error(err))
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.NotesImported++
	}

	return result, nil
}

func noteLabel(n noteElement) string {
	if strings.TrimSpace(n.Title) != "" {
		return n.Title
	}
	return "Untitled"
}

// processNote sanitizes and persists a single note.
func (imp *Importer) processNote(ctx context.Context, n noteElement, authorID string) error {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = "Untitled"
	}

	created := imp.parseDate(n.Created)
	updated := created
	if n.Updated != "" {
		updated = imp.parseDate(n.Updated)
	}

	resources := make(map[string]string, len(n.Resources))
	for _, res := range n.Resources {
		hash, uri, err := processResource(res)
		if err != nil {
			return err
		}
		if hash != "" {
			resources[hash] = uri
		}
	}

	content := SanitizeENML(n.Content, resources)

	p := models.Post{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		Timestamp: created,
		UpdatedAt: updated,
		Tags:      n.Tags,
		Source:    importSource,
	}

	postID, err := imp.posts.Create(ctx, p)
	if err != nil {
		return err
	}
	return imp.posts.IndexUserPost(ctx, authorID, postID)
}

// processResource decodes one embedded attachment and returns its content
// hash plus a renderable data URI. A resource without data is skipped, not an
// error; undecodable data fails the note.
func processResource(res resourceElement) (hash, uri string, err error) {
	payload := stripWhitespace(res.Data.Text)
	if payload == "" {
		return "", "", nil
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("malformed resource data: %w", err)
	}

	hash = res.Data.Hash
	if hash == "" {
		// content-addressing fallback when the export declares no hash
		sum := md5.Sum(decoded)
		hash = hex.EncodeToString(sum[:])
	}

	mime := res.Mime
	if mime == "" {
		mime = "image/png"
	}

	// inline as a data URI; uploading to external object storage is a
	// separate collaborator's job
	return hash, "data:" + mime + ";base64," + payload, nil
}

// parseDate reads the ENEX compact date format, falling back to "now" on
// failure. A bad date never aborts the note.
func (imp *Importer) parseDate(s string) float64 {
	if s == "" {
		return float64(imp.now().Unix())
	}
	t, err := time.Parse(enexDateLayout, s)
	if err != nil {
		imp.log.Warn("unparseable note date, using current time", zap.String("date", s), zap.Error(err))
		return float64(imp.now().Unix())
	}
	return float64(t.Unix())
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
