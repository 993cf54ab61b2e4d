// Package submit posts a completed application to the mail-relay endpoint as
// multipart form data. The call is fire-and-forget: one in-flight request, no
// retry, no cancellation beyond the caller's context.
package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"github.com/zofin/loanflow/pkg/document"
)

// FieldTypePret is the wire name carrying the product submission label.
const FieldTypePret = "typePret"

// DocumentsField is the repeated wire name carrying attached files.
const DocumentsField = "documents[]"

// ApplicationIDHeader carries the server-issued application reference on a
// successful relay response.
const ApplicationIDHeader = "X-Application-Id"

// GenericFailureMessage is surfaced when the relay fails without a body.
const GenericFailureMessage = "Une erreur est survenue lors de l'envoi"

// Request is one application submission.
type Request struct {
	// Label is the product submission label, e.g. "Crédit Personnel".
	Label string
	// Fields maps wire field names to their string values.
	Fields map[string]string
	// FieldOrder fixes the multipart part order for the named fields; any
	// remaining Fields entries follow in sorted order.
	FieldOrder []string
	// Documents are attached under the repeated documents[] key. Entries
	// without content are skipped.
	Documents []document.File
}

// Receipt reports a successful submission.
type Receipt struct {
	// Reference is the server-issued application ID, empty when the relay
	// does not provide one.
	Reference string
}

// StatusError is returned for non-2xx relay responses. Its message is the
// response body text when present so server-side diagnostics reach the user.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return GenericFailureMessage
}

// Option customises the Client.
type Option func(*Client)

// WithHTTPClient overrides the transport used for submissions.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// Client posts applications to a relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient builds a Client for the given endpoint URL.
func NewClient(endpoint string, options ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Submit performs the multipart POST and interprets the response: any 2xx is
// success, everything else carries the body text back to the caller.
func (c *Client) Submit(ctx context.Context, req Request) (Receipt, error) {
	if ctx == nil {
		return Receipt{}, errors.New("submit: context is required")
	}
	if c.endpoint == "" {
		return Receipt{}, errors.New("submit: endpoint is required")
	}

	body, contentType, err := encodeRequest(req)
	if err != nil {
		return Receipt{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Receipt{}, fmt.Errorf("submit: read relay response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return Receipt{Reference: resp.Header.Get(ApplicationIDHeader)}, nil
}

func encodeRequest(req Request) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField(FieldTypePret, req.Label); err != nil {
		return nil, "", fmt.Errorf("submit: encode %s: %w", FieldTypePret, err)
	}

	written := map[string]bool{}
	for _, name := range req.FieldOrder {
		value, ok := req.Fields[name]
		if !ok {
			continue
		}
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("submit: encode %s: %w", name, err)
		}
		written[name] = true
	}

	rest := make([]string, 0, len(req.Fields))
	for name := range req.Fields {
		if !written[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if err := w.WriteField(name, req.Fields[name]); err != nil {
			return nil, "", fmt.Errorf("submit: encode %s: %w", name, err)
		}
	}

	for _, doc := range req.Documents {
		if len(doc.Content) == 0 {
			continue
		}
		part, err := w.CreatePart(filePartHeader(doc))
		if err != nil {
			return nil, "", fmt.Errorf("submit: encode document %s: %w", doc.Name, err)
		}
		if _, err := part.Write(doc.Content); err != nil {
			return nil, "", fmt.Errorf("submit: encode document %s: %w", doc.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("submit: finalize form: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func filePartHeader(doc document.File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, DocumentsField, doc.Name))
	contentType := doc.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}
