// Package image models the unit of work handed to an upload provider: one
// in-memory image plus the metadata used to name it in the object store.
package image

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUndefinedImage is returned when an item carries neither a raw buffer
// nor a base64 encoded payload.
var ErrUndefinedImage = errors.New("undefined image")

// dataURIPrefix matches the "data:<mime>;base64," header of a data URI and
// captures the MIME type.
var dataURIPrefix = regexp.MustCompile(`^data:([\w.+-]+/[\w.+-]+);base64,`)

// Item is a single image owned by the host. Exactly one of Buffer and
// Base64Image is expected to be set; when both are, Base64Image wins.
type Item struct {
	// Buffer holds the raw image bytes.
	Buffer []byte `json:"buffer,omitempty"`

	// Base64Image holds the image as a bare base64 string or a data URI.
	Base64Image string `json:"base64Image,omitempty"`

	// FileName is the original file name, including its extension.
	FileName string `json:"fileName"`

	// ExtName is the file extension with its leading dot, e.g. ".png".
	ExtName string `json:"extname"`

	// ContentEncoding is passed through to the object store when set, e.g.
	// "gzip" for pre-compressed SVG.
	ContentEncoding string `json:"contentEncoding,omitempty"`

	// URL and ImgURL are written back once the item has been uploaded.
	URL    string `json:"url,omitempty"`
	ImgURL string `json:"imgUrl,omitempty"`
}

// Payload is the decoded body of an item together with the metadata sent
// alongside it.
type Payload struct {
	Body            []byte
	ContentType     string
	ContentEncoding string
}

// HasPayload reports whether either payload field is populated.
func (it *Item) HasPayload() bool {
	return len(it.Buffer) > 0 || it.Base64Image != ""
}

// Payload extracts the bytes to upload. The content type is taken from the
// data URI header or the file extension, and sniffed from the bytes as a
// last resort.
func (it *Item) Payload() (Payload, error) {
	if !it.HasPayload() {
		return Payload{}, ErrUndefinedImage
	}

	p := Payload{ContentEncoding: it.ContentEncoding}

	if it.Base64Image != "" {
		encoded := it.Base64Image
		if m := dataURIPrefix.FindStringSubmatch(encoded); m != nil {
			p.ContentType = m[1]
			encoded = encoded[len(m[0]):]
		}
		body, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return Payload{}, fmt.Errorf("image: invalid base64 payload for %q: %w", it.FileName, err)
		}
		p.Body = body
	} else {
		p.Body = it.Buffer
		if ext := it.extWithDot(); ext != "" {
			p.ContentType = mime.TypeByExtension(ext)
		}
	}

	if p.ContentType == "" {
		p.ContentType = mimetype.Detect(p.Body).String()
	}

	return p, nil
}

// MD5 returns the hex encoded MD5 digest of the decoded payload.
func (it *Item) MD5() (string, error) {
	p, err := it.Payload()
	if err != nil {
		return "", err
	}
	sum := md5.Sum(p.Body)
	return hex.EncodeToString(sum[:]), nil
}

// BaseName returns the file name without its extension.
func (it *Item) BaseName() string {
	name := path.Base(strings.ReplaceAll(it.FileName, `\`, "/"))
	if name == "." || name == "/" {
		return ""
	}
	if ext := it.extWithDot(); ext != "" && strings.HasSuffix(name, ext) {
		return strings.TrimSuffix(name, ext)
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// Ext returns the extension without its leading dot.
func (it *Item) Ext() string {
	return strings.TrimPrefix(it.extWithDot(), ".")
}

// Release drops the payload once the host no longer needs it.
func (it *Item) Release() {
	it.Buffer = nil
	it.Base64Image = ""
}

func (it *Item) extWithDot() string {
	ext := it.ExtName
	if ext == "" {
		ext = path.Ext(it.FileName)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
