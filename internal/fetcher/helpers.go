package fetcher

import (
	"context"
	"strings"

	"github.com/JakeFAU/apodex/internal/apod"
	"github.com/JakeFAU/apodex/internal/day"
	"github.com/JakeFAU/apodex/internal/media"
	"golang.org/x/net/html/charset"
)

// PageURL joins baseURL and the page name of d.
func PageURL(baseURL string, d day.Index) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + d.PageName()
}

// FetchPage downloads the page for d and decodes it to UTF-8 text.
func FetchPage(ctx context.Context, f Fetcher, baseURL string, d day.Index) (string, bool, error) {
	body, found, err := f.Fetch(ctx, PageURL(baseURL, d))
	if err != nil || !found {
		return "", found, err
	}
	return DecodeText(body), true, nil
}

// FetchMedia downloads the highest quality media of entry. Entries without a
// media URL report found=false.
func FetchMedia(ctx context.Context, f Fetcher, entry apod.Entry) (media.Blob, bool, error) {
	url, ok := entry.Media.Best()
	if !ok {
		return media.Blob{}, false, nil
	}
	body, found, err := f.Fetch(ctx, url)
	if err != nil || !found {
		return media.Blob{}, found, err
	}
	return media.Blob{Kind: media.KindOf(url), Data: body}, true, nil
}

// DecodeText sniffs the page encoding (BOM, meta charset, UTF-8 validity) and
// converts to UTF-8. Bytes that cannot be decoded become U+FFFD.
func DecodeText(body []byte) string {
	enc, _, _ := charset.DetermineEncoding(body, "")
	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return strings.ToValidUTF8(string(body), "�")
	}
	return strings.ToValidUTF8(string(decoded), "�")
}
