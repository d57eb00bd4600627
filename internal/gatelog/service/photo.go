package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/BrandonDHaskell/gatelog/internal/gatelog/delivery"
	"github.com/BrandonDHaskell/gatelog/internal/gatelog/types"
)

const (
	defaultPhotoExt   = ".png"
	photoStampLayout  = "2006-01-02T15:04:05.000Z07:00"
	emptyNameFallback = "NA"
)

// PhotoArtifact turns a record's embedded photo into a deliverable file.
func PhotoArtifact(rec types.AccessRecord) (delivery.Artifact, error) {
	mediaType, data, err := DecodeDataURL(rec.Photo)
	if err != nil {
		return delivery.Artifact{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	return delivery.Artifact{
		Name:    PhotoFileName(rec, photoExtension(mediaType, data)),
		Kind:    delivery.KindPhoto,
		Content: data,
	}, nil
}

// PhotoFileName is <timestamp>_<collaborator>_<fleet><ext>.  The timestamp
// is UTC ISO-8601 with ':' and '.' replaced by '-'; name and fleet number
// are folded to ASCII with every run of other characters collapsed to '_'.
func PhotoFileName(rec types.AccessRecord, ext string) string {
	stamp := rec.Timestamp.UTC().Format(photoStampLayout)
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)
	return stamp + "_" + safeToken(rec.CollaboratorName) + "_" + safeToken(rec.FleetNumber) + ext
}

// DecodeDataURL parses "data:[<mediatype>][;base64],<data>".  A bare base64
// string (no "data:" prefix) is accepted as an undeclared image.
func DecodeDataURL(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, ErrInvalidPhoto
	}

	if !strings.HasPrefix(s, "data:") {
		data, err := decodeBase64(s)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
		}
		return "", data, nil
	}

	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing ','", ErrInvalidPhoto)
	}

	isBase64 := false
	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	var err error
	if isBase64 {
		data, err = decodeBase64(payload)
	} else {
		var text string
		text, err = url.PathUnescape(payload)
		data = []byte(text)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidPhoto, err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("%w: empty payload", ErrInvalidPhoto)
	}
	return mediaType, data, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}

// photoExtension prefers the declared media type and falls back to content
// sniffing, then to ".png".
func photoExtension(mediaType string, data []byte) string {
	if mediaType != "" {
		if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
			return m.Extension()
		}
	}
	if m := mimetype.Detect(data); m != nil && strings.HasPrefix(m.String(), "image/") && m.Extension() != "" {
		return m.Extension()
	}
	return defaultPhotoExt
}

func safeToken(s string) string {
	// Transformers carry state, so the chain is built per call.
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, s)
	if err != nil {
		folded = s
	}

	var b bytes.Buffer
	pendingSep := false
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return emptyNameFallback
	}
	return b.String()
}
