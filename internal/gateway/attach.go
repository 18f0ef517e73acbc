package gateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxFetchedImageBytes caps how much of a remote image is pulled into memory
const maxFetchedImageBytes = 20 << 20

// Attacher writes the selected image into a multipart body. There are two
// implementations: FileAttacher streams a local file by reference, and
// FetchAttacher dereferences an addressable URI into bytes first.
type Attacher interface {
	Attach(ctx context.Context, w *multipart.Writer, field string, ref ImageRef) error
}

// SelectAttacher picks the attachment strategy for ref. Local paths and
// file:// URIs have direct file access; everything else must be fetched.
func SelectAttacher(ref ImageRef, httpClient *http.Client) Attacher {
	if HasFileAccess(ref) {
		return FileAttacher{}
	}
	return FetchAttacher{HTTPClient: httpClient}
}

// HasFileAccess reports whether ref names something readable from the local filesystem
func HasFileAccess(ref ImageRef) bool {
	s := strings.TrimSpace(string(ref))
	u, err := url.Parse(s)
	if err != nil {
		return true
	}
	switch strings.ToLower(u.Scheme) {
	case "", "file":
		return true
	case "http", "https", "data", "blob":
		return false
	default:
		// Windows drive letters parse as a one-letter scheme
		return len(u.Scheme) == 1
	}
}

// FileAttacher attaches a local file with its name and inferred MIME type
type FileAttacher struct{}

// Attach implements Attacher
func (FileAttacher) Attach(ctx context.Context, w *multipart.Writer, field string, ref ImageRef) error {
	p := localPath(ref)

	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			missing := NewMissingImageError()
			missing.Message = fmt.Sprintf("image not found: %s", p)
			missing.Err = err
			return missing
		}
		return NewImageError(fmt.Sprintf("cannot open image %s", p), err)
	}
	defer func() { _ = f.Close() }()

	filename := filepath.Base(p)
	part, err := createImagePart(w, field, filename, MIMETypeForFilename(filename))
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}

	if _, err := io.Copy(part, f); err != nil {
		return NewImageError(fmt.Sprintf("cannot read image %s", p), err)
	}
	return nil
}

// localPath converts a file:// URI to a path and leaves plain paths alone
func localPath(ref ImageRef) string {
	s := strings.TrimSpace(string(ref))
	if strings.HasPrefix(strings.ToLower(s), "file://") {
		if u, err := url.Parse(s); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	return s
}

// FetchAttacher dereferences http(s):// and data: URIs into raw bytes
type FetchAttacher struct {
	HTTPClient *http.Client
}

// Attach implements Attacher
func (a FetchAttacher) Attach(ctx context.Context, w *multipart.Writer, field string, ref ImageRef) error {
	data, filename, contentType, err := a.Dereference(ctx, ref)
	if err != nil {
		return err
	}

	part, err := createImagePart(w, field, filename, contentType)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to attach image %s: %w", filename, err)
	}
	return nil
}

// Dereference resolves ref into bytes, a filename and a MIME type
func (a FetchAttacher) Dereference(ctx context.Context, ref ImageRef) ([]byte, string, string, error) {
	s := strings.TrimSpace(string(ref))
	if strings.HasPrefix(strings.ToLower(s), "data:") {
		return decodeDataURI(s)
	}

	client := a.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s, nil)
	if err != nil {
		return nil, "", "", NewImageError(fmt.Sprintf("invalid image URI %q", s), err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", "", ClassifyNetworkError(err, s)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", "", &GatewayError{
			Type:       ErrTypeTransport,
			Message:    fmt.Sprintf("image download failed with status %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Endpoint:   s,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchedImageBytes+1))
	if err != nil {
		return nil, "", "", ClassifyNetworkError(err, s)
	}
	if len(data) > maxFetchedImageBytes {
		return nil, "", "", NewImageError(fmt.Sprintf("image exceeds %d MiB", maxFetchedImageBytes>>20), nil)
	}

	filename := "image.jpg"
	if u, err := url.Parse(s); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" && base != "" {
			filename = base
		}
	}

	contentType := MIMETypeForFilename(filename)
	if ct, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && strings.HasPrefix(ct, "image/") {
		contentType = ct
	}

	return data, filename, contentType, nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>
func decodeDataURI(s string) ([]byte, string, string, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return nil, "", "", NewImageError("malformed data URI", nil)
	}

	meta := s[len("data:"):comma]
	payload := s[comma+1:]

	isBase64 := false
	if strings.HasSuffix(strings.ToLower(meta), ";base64") {
		isBase64 = true
		meta = meta[:len(meta)-len(";base64")]
	}

	contentType := DefaultImageMIMEType
	if mt, _, err := mime.ParseMediaType(meta); err == nil && strings.HasPrefix(mt, "image/") {
		contentType = mt
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var unescaped string
		unescaped, err = url.PathUnescape(payload)
		data = []byte(unescaped)
	}
	if err != nil {
		return nil, "", "", NewImageError("malformed data URI", err)
	}

	return data, "image" + ExtensionForMIMEType(contentType), contentType, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// createImagePart is multipart.Writer.CreateFormFile with a real Content-Type
func createImagePart(w *multipart.Writer, field, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(filename)))
	h.Set("Content-Type", contentType)
	return w.CreatePart(h)
}
