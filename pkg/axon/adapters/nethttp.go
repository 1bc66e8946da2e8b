package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/toyz/axonbind/pkg/axon"
)

// defaultMultipartMemory matches the in-memory limit gin and echo use.
const defaultMultipartMemory = 32 << 20 // 32 MB

// bodyCache reads a net/http request body once and replays it, so that both
// the binding layer and framework helpers can consume it.
type bodyCache struct {
	request *http.Request
	body    []byte
	read    bool
}

// bytes returns the body. With a positive limit at most limit+1 bytes are
// read; a longer body fails with axon.ErrBodyTooLarge and the bytes read so
// far are put back in front of the unread remainder.
func (bc *bodyCache) bytes(limit int64) ([]byte, error) {
	if bc.read {
		if limit > 0 && int64(len(bc.body)) > limit {
			return nil, bodyTooLarge(limit)
		}
		return bc.body, nil
	}
	if bc.request.Body == nil || bc.request.Body == http.NoBody {
		bc.read = true
		return nil, nil
	}

	var reader io.Reader = bc.request.Body
	if limit > 0 {
		reader = io.LimitReader(reader, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(body)) > limit {
		bc.request.Body = replayBody{
			Reader: io.MultiReader(bytes.NewReader(body), bc.request.Body),
			Closer: bc.request.Body,
		}
		return nil, bodyTooLarge(limit)
	}
	bc.request.Body.Close()
	bc.request.Body = io.NopCloser(bytes.NewReader(body))

	bc.body = body
	bc.read = true
	return body, nil
}

type replayBody struct {
	io.Reader
	io.Closer
}

func bodyTooLarge(limit int64) error {
	return fmt.Errorf("%w: more than %d bytes", axon.ErrBodyTooLarge, limit)
}

// isMultipart reports whether the request carries a multipart/form-data body.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// postForm returns body fields only, leaving query values out.
func postForm(r *http.Request) (map[string][]string, error) {
	if isMultipart(r) {
		if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		if r.MultipartForm == nil {
			return map[string][]string{}, nil
		}
		return r.MultipartForm.Value, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// multipartFiles converts parsed multipart files into axon.FileHeader values.
func multipartFiles(r *http.Request) (map[string][]axon.FileHeader, error) {
	files := make(map[string][]axon.FileHeader)
	if !isMultipart(r) {
		return files, nil
	}
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil {
			return nil, err
		}
	}
	return convertMultipartFiles(r.MultipartForm), nil
}

func convertMultipartFiles(form *multipart.Form) map[string][]axon.FileHeader {
	files := make(map[string][]axon.FileHeader)
	if form == nil {
		return files
	}
	for key, headers := range form.File {
		converted := make([]axon.FileHeader, 0, len(headers))
		for _, fh := range headers {
			converted = append(converted, &multipartFileHeader{header: fh})
		}
		files[key] = converted
	}
	return files
}

// multipartFileHeader implements axon.FileHeader over a stdlib multipart header.
// gin, echo and fiber all hand out *multipart.FileHeader.
type multipartFileHeader struct {
	header *multipart.FileHeader
}

func (mfh *multipartFileHeader) Filename() string {
	return mfh.header.Filename
}

func (mfh *multipartFileHeader) Header() map[string][]string {
	return mfh.header.Header
}

func (mfh *multipartFileHeader) Size() int64 {
	return mfh.header.Size
}

func (mfh *multipartFileHeader) Open() (io.ReadCloser, error) {
	return mfh.header.Open()
}

// writeHandlerError renders an error returned by an axon handler as JSON.
func writeHandlerError(err error, write func(code int, body any)) {
	httpErr := axon.AsHttpError(err)
	write(httpErr.StatusCode, httpErr)
}
