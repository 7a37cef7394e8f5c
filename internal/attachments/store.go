package attachments

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"dentalcore/internal/blob/core"
	"dentalcore/pkg/domain"
)

// Store produces IncidentFile records from uploaded bytes. With no blob
// backend configured every attachment is inlined as a data URL, matching the
// single-document persistence model; with a backend the bytes live in the blob
// store and the record carries its URL instead.
type Store struct {
	blobs core.Store
}

// NewInline returns a store that always inlines attachments as data URLs.
func NewInline() *Store { return &Store{} }

// New returns a store that persists attachment bytes to the supplied blob store.
func New(blobs core.Store) *Store { return &Store{blobs: blobs} }

// Save consumes the reader and returns the IncidentFile to append to the
// incident. Keys are namespaced by incident so a blob listing groups a
// record's attachments together.
func (s *Store) Save(ctx context.Context, incidentID, name, contentType string, r io.Reader) (domain.IncidentFile, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return domain.IncidentFile{}, fmt.Errorf("read attachment: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	file := domain.IncidentFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(payload)),
	}
	if s.blobs == nil {
		file.URL = EncodeDataURL(contentType, payload)
		return file, nil
	}
	key := path.Join("incidents", incidentID, uuid.NewString()+path.Ext(name))
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(payload), core.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"filename": name, "incident_id": incidentID},
	})
	if err != nil {
		return domain.IncidentFile{}, fmt.Errorf("store attachment: %w", err)
	}
	file.URL = info.URL
	if file.URL == "" {
		if signed, err := s.blobs.PresignURL(ctx, key, core.SignedURLOptions{}); err == nil {
			file.URL = signed
		} else {
			file.URL = key
		}
	}
	return file, nil
}

// Open retrieves the payload of a previously saved attachment. Inline data
// URLs decode locally; blob URLs are resolved through the backend by key.
func (s *Store) Open(ctx context.Context, file domain.IncidentFile) (string, []byte, error) {
	if IsDataURL(file.URL) {
		return DecodeDataURL(file.URL)
	}
	if s.blobs == nil {
		return "", nil, fmt.Errorf("attachment %s is not inline and no blob store is configured", file.Name)
	}
	info, rc, err := s.blobs.Get(ctx, keyFromURL(file.URL))
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, err
	}
	return info.ContentType, payload, nil
}

// keyFromURL recovers the blob key from a stored attachment URL. Bare keys
// pass through unchanged.
func keyFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	return strings.TrimPrefix(u.Path, "/")
}
