package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Body is a request payload that knows its own content type.
// JSON is the default encoding; Form exists for endpoints that require it.
type Body interface {
	ContentType() string
	Encode() (io.Reader, error)
}

type jsonBody struct{ v any }

// JSON encodes v as an application/json body.
func JSON(v any) Body { return jsonBody{v: v} }

func (jsonBody) ContentType() string { return ContentTypeJSON }

func (b jsonBody) Encode() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON body: %w", err)
	}
	return bytes.NewReader(data), nil
}

type formBody struct{ values url.Values }

// Form encodes values as an application/x-www-form-urlencoded body.
func Form(values url.Values) Body { return formBody{values: values} }

func (formBody) ContentType() string { return ContentTypeForm }

func (b formBody) Encode() (io.Reader, error) {
	return strings.NewReader(b.values.Encode()), nil
}
