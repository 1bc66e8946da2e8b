package binding

import (
	"mime"
	"strings"
)

// Format is the short name of a body content type, e.g. "json" or "form".
type Format string

const (
	FormatNone   Format = ""
	FormatJSON   Format = "json"
	FormatForm   Format = "form"
	FormatXML    Format = "xml"
	FormatHTML   Format = "html"
	FormatText   Format = "txt"
	FormatJSONLD Format = "jsonld"
	FormatCSV    Format = "csv"
)

var formatMediaTypes = map[string]Format{
	"application/json":                  FormatJSON,
	"application/x-json":                FormatJSON,
	"application/x-www-form-urlencoded": FormatForm,
	"multipart/form-data":               FormatForm,
	"application/xml":                   FormatXML,
	"text/xml":                          FormatXML,
	"application/x-xml":                 FormatXML,
	"text/html":                         FormatHTML,
	"application/xhtml+xml":             FormatHTML,
	"text/plain":                        FormatText,
	"application/ld+json":               FormatJSONLD,
	"text/csv":                          FormatCSV,
}

// ContentFormat classifies a Content-Type header value. Parameters such as
// charset are ignored. Unknown or missing types yield FormatNone.
func ContentFormat(contentType string) Format {
	if contentType == "" {
		return FormatNone
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	return formatMediaTypes[mediaType]
}

// KnownFormat reports whether name is a format ContentFormat can return.
func KnownFormat(name string) bool {
	for _, f := range formatMediaTypes {
		if string(f) == name {
			return true
		}
	}
	return false
}
