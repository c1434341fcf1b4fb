package engine

import (
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tanq16/hauler/internal/utils"
)

// ProbeInfo is the result of the capability probe. Size is -1 when the
// server does not report a usable Content-Length.
type ProbeInfo struct {
	Size           int64
	SupportsRanges bool
	Filename       string
}

var filenameRegex = regexp.MustCompile(`[^a-zA-Z0-9_\-\. ]+`)

// Probe issues a zero-body HEAD request to discover resource length and
// byte-range support. No retries happen at this layer.
func Probe(client utils.HTTPDoer, link string) (ProbeInfo, error) {
	info := ProbeInfo{Size: -1}
	req, err := http.NewRequest("HEAD", link, nil)
	if err != nil {
		return info, &ConnectivityError{URL: link, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return info, &ConnectivityError{URL: link, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return info, &ConnectivityError{URL: link, Status: resp.StatusCode}
	}
	if contentDisposition := resp.Header.Get("Content-Disposition"); contentDisposition != "" {
		if _, params, err := mime.ParseMediaType(contentDisposition); err == nil {
			if fn, ok := params["filename"]; ok && fn != "" {
				info.Filename = filenameRegex.ReplaceAllString(fn, "_")
			} else if fn, ok := params["filename*"]; ok && fn != "" {
				if strings.HasPrefix(fn, "UTF-8''") {
					unescaped, _ := url.PathUnescape(strings.TrimPrefix(fn, "UTF-8''"))
					info.Filename = filenameRegex.ReplaceAllString(unescaped, "_")
				}
			}
		}
	}
	info.SupportsRanges = resp.Header.Get("Accept-Ranges") == "bytes"
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil && size > 0 {
			info.Size = size
		}
	}
	return info, nil
}
