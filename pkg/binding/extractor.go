package binding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/toyz/axonbind/pkg/axon"
)

// Extractor collects request parameters into a single map for binding.
type Extractor struct {
	normalize   func(map[string]any) map[string]any
	maxBodySize int64
}

// NewExtractor creates an Extractor for the given settings.
func NewExtractor(cfg Config) *Extractor {
	return &Extractor{
		normalize:   cfg.normalizer(),
		maxBodySize: cfg.MaxBodySize,
	}
}

// Read extracts parameters for the read variant: query merged with route
// parameters, route winning on collision, then normalized.
func (e *Extractor) Read(rc axon.RequestContext) map[string]any {
	return e.normalize(MergeRead(rc.QueryParams(), rc.RouteParams()))
}

// Write extracts parameters for the write variant. Route parameters are the
// base. A non-empty JSON body is merged over them and normalized; form
// fields and uploaded files are merged as submitted. Any other format
// yields route parameters only.
//
// When accept is non-empty, a non-empty body in a format outside accept
// fails with ErrUnsupportedMediaType.
func (e *Extractor) Write(rc axon.RequestContext, accept []string) (map[string]any, error) {
	params := routeParams(rc.RouteParams())
	req := rc.Request()
	format := ContentFormat(req.ContentType())

	var body []byte
	if format == FormatJSON {
		raw, err := e.readBody(req)
		if err != nil {
			return nil, err
		}
		body = raw
	}

	if len(accept) > 0 && !slices.Contains(accept, string(format)) && hasBody(req, format, body) {
		return nil, fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedMediaType, req.ContentType(), strings.Join(accept, ", "))
	}

	switch format {
	case FormatJSON:
		if len(body) == 0 {
			return params, nil
		}
		payload, err := decodeJSONObject(body)
		if err != nil {
			return nil, err
		}
		maps.Copy(params, payload)
		return e.normalize(params), nil

	case FormatForm:
		fields, err := rc.FormParams()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		files, err := rc.FormFiles()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
		}
		maps.Copy(params, ExpandValues(stringValues(fields)))
		maps.Copy(params, ExpandValues(fileValues(files)))
		return params, nil

	default:
		return params, nil
	}
}

func (e *Extractor) readBody(req axon.RequestInterface) ([]byte, error) {
	if e.maxBodySize > 0 && req.ContentLength() > e.maxBodySize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrBodyTooLarge, req.ContentLength(), e.maxBodySize)
	}
	body, err := req.LimitedBody(e.maxBodySize)
	if errors.Is(err, ErrBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return body, nil
}

// hasBody decides emptiness on raw bytes for JSON and on the declared
// length for other formats, whose bodies are left to the framework.
func hasBody(req axon.RequestInterface, format Format, body []byte) bool {
	if format == FormatJSON {
		return len(body) > 0
	}
	return req.ContentLength() != 0
}

func decodeJSONObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformedBody, jsonKind(payload))
	}

	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the JSON object", ErrMalformedBody)
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// MergeRead merges query values with route parameters. Route parameters
// override query values with the same key.
func MergeRead(query map[string][]string, route map[string]string) map[string]any {
	params := ExpandValues(stringValues(query))
	for key, value := range route {
		params[key] = value
	}
	return params
}

func routeParams(route map[string]string) map[string]any {
	params := make(map[string]any, len(route))
	for key, value := range route {
		params[key] = value
	}
	return params
}

func stringValues(values map[string][]string) map[string][]any {
	out := make(map[string][]any, len(values))
	for key, vals := range values {
		items := make([]any, len(vals))
		for i, v := range vals {
			items[i] = v
		}
		out[key] = items
	}
	return out
}

func fileValues(files map[string][]axon.FileHeader) map[string][]any {
	out := make(map[string][]any, len(files))
	for key, headers := range files {
		items := make([]any, len(headers))
		for i, fh := range headers {
			items[i] = fh
		}
		out[key] = items
	}
	return out
}

// ExpandValues turns multi-valued form or query values into a parameter map.
// Plain keys with one value map to that value and repeated plain keys map to
// a list. Bracketed keys build nested structures: "tags[]" appends to a list
// and "filter[status]" sets a key of a nested map.
//
// When a plain key and its bracketed form are both sent, "tags=a&tags[]=b"
// yields ["a", "b"], while "filter=x&filter[status]=open" keeps only the
// nested map.
func ExpandValues(values map[string][]any) map[string]any {
	out := make(map[string]any, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		vals := values[key]
		root, path, ok := splitBracketKey(key)
		if !ok {
			if len(vals) == 1 {
				out[key] = vals[0]
			} else {
				out[key] = slices.Clone(vals)
			}
			continue
		}
		for _, v := range vals {
			out[root] = assignPath(out[root], path, v)
		}
	}
	return out
}

// splitBracketKey splits "a[b][]" into "a" and ["b", ""]. Keys without
// well-formed brackets are reported as plain.
func splitBracketKey(key string) (string, []string, bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return "", nil, false
	}

	root, rest := key[:open], key[open:]
	var path []string
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, false
		}
		segment, after, found := strings.Cut(rest[1:], "]")
		if !found {
			return "", nil, false
		}
		path = append(path, segment)
		rest = after
	}
	return root, path, true
}

func assignPath(node any, path []string, value any) any {
	if len(path) == 0 {
		return value
	}
	if path[0] == "" {
		var list []any
		switch n := node.(type) {
		case nil:
		case []any:
			list = n
		default:
			list = []any{n}
		}
		return append(list, assignPath(nil, path[1:], value))
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	m[path[0]] = assignPath(m[path[0]], path[1:], value)
	return m
}
