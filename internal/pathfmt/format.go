// Package pathfmt turns an upload path template such as
// "{year}/{month}/{md5}.{extName}" into a concrete object key for an image.
package pathfmt

import (
	"fmt"
	"regexp"
	"time"

	"github.com/tomasbasham/imgup/internal/image"
)

// DefaultTemplate is the upload path used when none is configured.
const DefaultTemplate = "{year}/{month}/{md5}.{extName}"

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// Format resolves template for item at time now. Unknown placeholders are
// left untouched. An empty template yields the item's file name.
//
// The payload is hashed before any substitution, so an item without one
// fails with image.ErrUndefinedImage rather than producing a partial key.
// The item is never modified.
func Format(item *image.Item, template string, now time.Time) (string, error) {
	if template == "" {
		if !item.HasPayload() {
			return "", image.ErrUndefinedImage
		}
		return item.FileName, nil
	}

	sum, err := item.MD5()
	if err != nil {
		return "", err
	}

	values := map[string]string{
		"year":     fmt.Sprintf("%04d", now.Year()),
		"month":    fmt.Sprintf("%02d", int(now.Month())),
		"day":      fmt.Sprintf("%02d", now.Day()),
		"hour":     fmt.Sprintf("%02d", now.Hour()),
		"minute":   fmt.Sprintf("%02d", now.Minute()),
		"second":   fmt.Sprintf("%02d", now.Second()),
		"md5":      sum,
		"filename": item.BaseName(),
		"extName":  item.Ext(),
	}

	return placeholder.ReplaceAllStringFunc(template, func(token string) string {
		if v, ok := values[token[1:len(token)-1]]; ok {
			return v
		}
		return token
	}), nil
}
