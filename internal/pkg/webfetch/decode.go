package webfetch

import (
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// decodeBody decodes raw bytes using the response's declared charset
// (falling back to UTF-8), replacing invalid sequences rather than
// failing — the Go analogue of Python's errors="replace".
func decodeBody(raw []byte, contentType string) string {
	enc := charsetFromContentType(contentType)
	if enc == nil {
		if utf8.Valid(raw) {
			return string(raw)
		}
		return strings.ToValidUTF8(string(raw), "�")
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return strings.ToValidUTF8(string(decoded), "�")
}

func charsetFromContentType(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	charset, ok := params["charset"]
	if !ok {
		return nil
	}
	enc, err := htmlindex.Get(strings.ToLower(charset))
	if err != nil {
		return nil
	}
	return enc
}
