// Package attachments turns raw uploaded file bytes into IncidentFile records,
// either inlined as data URLs or persisted to a blob store.
package attachments

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const dataURLPrefix = "data:"

// EncodeDataURL builds a self-contained data URL carrying the payload inline.
// An empty content type falls back to application/octet-stream.
func EncodeDataURL(contentType string, payload []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return dataURLPrefix + contentType + ";base64," + base64.StdEncoding.EncodeToString(payload)
}

// IsDataURL reports whether url is an inline data URL.
func IsDataURL(url string) bool {
	return strings.HasPrefix(url, dataURLPrefix)
}

// DecodeDataURL extracts the content type and payload from a data URL produced
// by EncodeDataURL.
func DecodeDataURL(url string) (contentType string, payload []byte, err error) {
	if !IsDataURL(url) {
		return "", nil, fmt.Errorf("not a data url")
	}
	rest := strings.TrimPrefix(url, dataURLPrefix)
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, fmt.Errorf("unsupported data url encoding")
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	payload, err = base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url payload: %w", err)
	}
	return contentType, payload, nil
}
