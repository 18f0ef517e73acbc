package gateway

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/muurk/gallery/internal/validation"
)

const (
	// FallbackWidth and FallbackHeight size a cell before its image has loaded
	FallbackWidth  = 300
	FallbackHeight = 400

	// StatusSuccess is the listing envelope status for a good response
	StatusSuccess = "success"
)

// ImageItem is one image in the gallery
type ImageItem struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// AspectRatio returns width/height, or 1 when the size is unknown
func (i ImageItem) AspectRatio() float64 {
	if i.Width <= 0 || i.Height <= 0 {
		return 1
	}
	return float64(i.Width) / float64(i.Height)
}

// ImageListPage is one batch of images returned by FetchImages
type ImageListPage struct {
	Images []ImageItem `json:"images"`
	Total  int         `json:"total"`
}

// emptyPage is returned for malformed listing responses
func emptyPage() *ImageListPage {
	return &ImageListPage{Images: []ImageItem{}, Total: 0}
}

// ImageRef addresses the image attached to a submission. It may be a local
// path, a file:// URI, an http(s):// URL or a data: URI.
type ImageRef string

// IsZero reports whether no image has been selected
func (r ImageRef) IsZero() bool {
	return strings.TrimSpace(string(r)) == ""
}

// SubmissionPayload is built right before SubmitUserData is called
type SubmissionPayload struct {
	Form  validation.FormData
	Image ImageRef
}

// SubmissionResult is returned for a successful submission
type SubmissionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DefaultSuccessMessage is used when the endpoint does not supply one
const DefaultSuccessMessage = "Your details have been saved successfully!"

// listingEnvelope is the getdata.php response shape
type listingEnvelope struct {
	Status string         `json:"status"`
	Images []remoteRecord `json:"images"`
	Total  flexNumber     `json:"total"`
}

// remoteRecord is one entry of the listing response
type remoteRecord struct {
	ID      flexString `json:"id"`
	XTImage string     `json:"xt_image"`
	Width   flexNumber `json:"width"`
	Height  flexNumber `json:"height"`
}

// toImageItem maps a remote record, filling in the fallback size
func (r remoteRecord) toImageItem() ImageItem {
	item := ImageItem{
		ID:       string(r.ID),
		ImageURL: strings.TrimSpace(r.XTImage),
		Width:    int(r.Width),
		Height:   int(r.Height),
	}
	if item.Width <= 0 || item.Height <= 0 {
		item.Width = FallbackWidth
		item.Height = FallbackHeight
	}
	return item
}

// saveEnvelope is the optional JSON body of a savedata.php response
type saveEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// flexNumber decodes a JSON number or numeric string. Anything else decodes to 0.
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = flexNumber(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

// flexString decodes a JSON string or number into its string form
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = flexString(str)
		return nil
	}
	*s = flexString(string(data))
	return nil
}
