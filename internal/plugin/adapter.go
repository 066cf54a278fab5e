package plugin

import (
	"strings"

	"github.com/tomasbasham/imgup/internal/dispatch"
	"github.com/tomasbasham/imgup/internal/image"
)

// ApplyResults writes each result back onto the item it came from: the
// payload is dropped and URL and ImgURL are set. With a urlPrefix the URL
// becomes prefix/key, after removing one trailing slash from the prefix.
func ApplyResults(items []*image.Item, results []dispatch.Result, urlPrefix string) {
	prefix := strings.TrimSuffix(urlPrefix, "/")

	for _, res := range results {
		item := items[res.Index]
		item.Release()

		url := res.Location
		if prefix != "" {
			url = prefix + "/" + res.Key
		}
		item.URL = url
		item.ImgURL = url
	}
}
