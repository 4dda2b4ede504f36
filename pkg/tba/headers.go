package tba

// Header names and fixed values attached to every API request.
const (
	HeaderUserAgent   = "User-Agent"
	HeaderAuthKey     = "X-TBA-Auth-Key" //nolint:gosec // header name, not a credential
	HeaderSortingType = "Content-SortingType"
	HeaderCharset     = "charset"

	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderLastModified    = "Last-Modified"

	UserAgent = "TBA-API-V3"
	// SortingType is sent verbatim for compatibility with existing consumers of
	// the API; it does not describe the request body.
	SortingType = "application/x-www-form-urlencoded"
	Charset     = "utf-8"

	DefaultBaseURL = "https://www.thebluealliance.com/api/v3/"
)
