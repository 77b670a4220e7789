package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Decoder represents data that can be decoded.
type Decoder interface {
	Decode(data []byte) error
}

type validator interface {
	Validate() error
}

// Decode reads the body of an HTTP request and decodes the body into the
// specified data model. If the data model implements the validator interface,
// the method will be called.
func Decode(r *http.Request, v Decoder) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("request: unable to read payload: %w", err)
	}

	if err := v.Decode(data); err != nil {
		return fmt.Errorf("request: decode: %w", err)
	}

	if v, ok := v.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// JSONEncoder adapts any JSON-serializable value to the Encoder interface.
type JSONEncoder struct {
	Status int
	Value  any
}

// Encode implements the Encoder interface.
func (e JSONEncoder) Encode() ([]byte, string, error) {
	data, err := json.Marshal(e.Value)
	return data, "application/json", err
}

// HTTPStatus implements the httpStatus interface.
func (e JSONEncoder) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusOK
	}
	return e.Status
}
