package attachments

import (
	"context"
	"strings"
	"testing"

	blobmemory "dentalcore/internal/infra/blob/memory"
	"dentalcore/pkg/domain"
)

func TestInlineStoreSaveAndOpen(t *testing.T) {
	store := NewInline()
	ctx := context.Background()

	file, err := store.Save(ctx, "i1", "xray.png", "image/png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if file.Name != "xray.png" || file.ContentType != "image/png" || file.Size != 6 {
		t.Fatalf("unexpected record: %+v", file)
	}
	if !IsDataURL(file.URL) {
		t.Fatalf("expected inline data url, got %s", file.URL)
	}

	contentType, payload, err := store.Open(ctx, file)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if contentType != "image/png" || string(payload) != "pixels" {
		t.Fatalf("round trip diverged: %s %q", contentType, payload)
	}
}

func TestBlobBackedStoreSaveAndOpen(t *testing.T) {
	blobs := blobmemory.New()
	store := New(blobs)
	ctx := context.Background()

	file, err := store.Save(ctx, "i1", "invoice.pdf", "", strings.NewReader("body"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if IsDataURL(file.URL) {
		t.Fatalf("expected blob reference, got inline url")
	}
	if file.ContentType != "application/octet-stream" {
		t.Fatalf("expected defaulted content type, got %s", file.ContentType)
	}
	if !strings.Contains(file.URL, "incidents/i1/") {
		t.Fatalf("expected incident-scoped key, got %s", file.URL)
	}
	if !strings.HasSuffix(file.URL, ".pdf") {
		t.Fatalf("expected original extension preserved, got %s", file.URL)
	}

	contentType, payload, err := store.Open(ctx, file)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if contentType != "application/octet-stream" || string(payload) != "body" {
		t.Fatalf("round trip diverged: %s %q", contentType, payload)
	}

	infos, err := blobs.List(ctx, "incidents/i1/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 || infos[0].Metadata["filename"] != "invoice.pdf" {
		t.Fatalf("unexpected blob listing: %+v", infos)
	}
}

func TestOpenWithoutBackendFails(t *testing.T) {
	store := NewInline()
	_, _, err := store.Open(context.Background(), domain.IncidentFile{Name: "abc.pdf", URL: "incidents/i1/abc.pdf"})
	if err == nil {
		t.Fatalf("expected error for blob reference without backend")
	}
}
