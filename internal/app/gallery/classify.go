package gallery

import (
	"errors"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/jose-valero/soup-bot/internal/domain"
)

var ErrInsufficientMedia = errors.New("not enough images")

// MinMedia is the smallest album worth paginating.
const MinMedia = 2

// IndexPolicy decides how accepted attachments are numbered.
type IndexPolicy int

const (
	// IndexAll numbers every submitted attachment, so an accepted file keeps
	// the position it had among all uploads (rejected ones leave gaps).
	IndexAll IndexPolicy = iota
	// IndexAccepted numbers accepted attachments 1..n.
	IndexAccepted
)

// Attachment is an upload recognised as displayable media.
type Attachment struct {
	Index     int
	URL       string
	Filename  string
	MediaType string
}

var mediaTypes = map[string]struct{}{
	"image/gif":  {},
	"image/png":  {},
	"image/apng": {},
	"image/jpg":  {},
	"image/jpeg": {},
	"image/tiff": {},
	"image/bmp":  {},
	"image/webp": {},
}

var extTypes = map[string]string{
	".gif":  "image/gif",
	".png":  "image/png",
	".apng": "image/apng",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// Classify keeps the image/animation attachments of raw in submission order.
// Anything else is dropped without error. Fewer than MinMedia accepted
// attachments is ErrInsufficientMedia.
func Classify(raw []domain.RawAttachment, policy IndexPolicy) ([]Attachment, error) {
	out := make([]Attachment, 0, len(raw))
	for i, r := range raw {
		mt, ok := mediaType(r)
		if !ok {
			continue
		}
		idx := i + 1
		if policy == IndexAccepted {
			idx = len(out) + 1
		}
		out = append(out, Attachment{Index: idx, URL: r.URL, Filename: r.Filename, MediaType: mt})
	}
	if len(out) < MinMedia {
		return nil, fmt.Errorf("%w: %d of %d attachments are images, need %d", ErrInsufficientMedia, len(out), len(raw), MinMedia)
	}
	return out, nil
}

func mediaType(r domain.RawAttachment) (string, bool) {
	if ct := strings.TrimSpace(r.ContentType); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return "", false
		}
		_, ok := mediaTypes[mt]
		return mt, ok
	}

	// sin content type: decide la extension
	name := r.Filename
	if name == "" {
		if u, err := url.Parse(r.URL); err == nil {
			name = u.Path
		}
	}
	mt, ok := extTypes[strings.ToLower(path.Ext(name))]
	return mt, ok
}
