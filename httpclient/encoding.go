package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"path/filepath"
)

const (
	contentTypeHeader      = "Content-Type"
	contentTypeJSON        = "application/json"
	contentTypeForm        = "application/x-www-form-urlencoded"
	contentTypeOctetStream = "application/octet-stream"
)

// Part is a single file part of a multipart request body.
type Part struct {
	FieldName string
	FileName  string
	// ContentType overrides the part content type. When empty it is inferred
	// from the file extension, falling back to application/octet-stream.
	ContentType string
	Data        []byte
}

// NewJSONRequest builds a Request carrying v marshaled as a JSON body.
func NewJSONRequest(rawURL string, v any) (*Request, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, NewEncodingError("failed to marshal JSON body", err)
	}
	return &Request{
		URL:     rawURL,
		Headers: map[string]string{contentTypeHeader: contentTypeJSON},
		Body:    body,
	}, nil
}

// NewFormRequest builds a Request carrying form encoded as
// application/x-www-form-urlencoded.
func NewFormRequest(rawURL string, form url.Values) *Request {
	return &Request{
		URL:     rawURL,
		Headers: map[string]string{contentTypeHeader: contentTypeForm},
		Body:    []byte(form.Encode()),
	}
}

// NewMultipartRequest builds a multipart/form-data Request from plain fields
// and file parts. The Content-Type header carries the generated boundary.
func NewMultipartRequest(rawURL string, fields map[string]string, parts []Part) (*Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, NewEncodingError(fmt.Sprintf("failed to write multipart field %q", name), err)
		}
	}
	for _, part := range parts {
		if err := writePart(writer, part); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, NewEncodingError("failed to finalize multipart body", err)
	}

	return &Request{
		URL:     rawURL,
		Headers: map[string]string{contentTypeHeader: writer.FormDataContentType()},
		Body:    buf.Bytes(),
	}, nil
}

// NewRawRequest builds a Request carrying body verbatim under contentType.
// An empty contentType leaves the header unset.
func NewRawRequest(rawURL, contentType string, body []byte) *Request {
	req := &Request{
		URL:  rawURL,
		Body: body,
	}
	if contentType != "" {
		req.Headers = map[string]string{contentTypeHeader: contentType}
	}
	return req
}

// DecodeJSON unmarshals the response body into v.
func DecodeJSON(resp *Response, v any) error {
	if resp == nil {
		return NewValidationError("cannot decode nil response", "response")
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return NewEncodingError(fmt.Sprintf("failed to decode response body (%s)", bodySnippet(resp.Body)), err)
	}
	return nil
}

func writePart(writer *multipart.Writer, part Part) error {
	header := make(textproto.MIMEHeader)
	if part.FileName != "" {
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, part.FieldName, part.FileName))
	} else {
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, part.FieldName))
	}
	header.Set(contentTypeHeader, partContentType(part))

	w, err := writer.CreatePart(header)
	if err != nil {
		return NewEncodingError(fmt.Sprintf("failed to create multipart part %q", part.FieldName), err)
	}
	if _, err := w.Write(part.Data); err != nil {
		return NewEncodingError(fmt.Sprintf("failed to write multipart part %q", part.FieldName), err)
	}
	return nil
}

func partContentType(part Part) string {
	if part.ContentType != "" {
		return part.ContentType
	}
	if ext := filepath.Ext(part.FileName); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return contentTypeOctetStream
}

// bodySnippet caps the body excerpt carried in decode errors.
func bodySnippet(body []byte) string {
	const maxSnippet = 64
	if len(body) <= maxSnippet {
		return string(body)
	}
	return string(body[:maxSnippet]) + "..."
}
