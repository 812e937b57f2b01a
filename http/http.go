// Package http decodes and encodes the AWS JSON/CBOR RPC protocol: requests
// name their operation in the X-Amz-Target header and carry a JSON or CBOR
// body selected by Content-Type.
package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fxamacker/cbor/v2"

	"keybox/awserrors"
)

const (
	jsonContentType = "application/x-amz-json-1.1"
	cborContentType = "application/x-amz-cbor-1.1"
)

// Registry maps "Service.Operation" targets to handlers.
type Registry = map[string]http.HandlerFunc

// strictUnmarshal rejects unknown fields in either codec, so drift between
// the SDK's shapes and ours surfaces as an error rather than silently-zero
// fields.
func strictUnmarshal(r io.Reader, contentType string, target any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	switch contentType {
	case jsonContentType:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(target); err != nil {
			return fmt.Errorf("json unmarshal: %w", err)
		}
		if decoder.More() {
			return errors.New("trailing data after JSON body")
		}
	case cborContentType:
		decMode, err := cbor.DecOptions{
			ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		}.DecMode()
		if err != nil {
			return err
		}
		if err := decMode.Unmarshal(data, target); err != nil {
			return fmt.Errorf("cbor unmarshal: %w", err)
		}
	default:
		return errors.New("unknown Content-Type: " + contentType)
	}
	return nil
}

func writeResponse(w http.ResponseWriter, output any, awserr *awserrors.Error, contentType string) {
	marshalFunc := cbor.Marshal
	if contentType == jsonContentType {
		marshalFunc = json.Marshal
	}

	if awserr != nil {
		output = awserr.Body
		w.WriteHeader(awserr.Code)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if output == nil {
		return
	}

	data, err := marshalFunc(output)
	if err != nil {
		// Outputs are plain structs of scalars/bytes; this cannot fail for
		// any shape we register.
		panic(err)
	}
	w.Write(data)
}

// Register installs handler under "service.method". Undecodable input is
// reported to the client as a serialization error, not a panic.
func Register[Input any, Output any](
	logger *slog.Logger,
	registry Registry,
	service string,
	method string,
	handler func(input Input) (*Output, *awserrors.Error),
) {
	registry[service+"."+method] = func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")

		var input Input
		if err := strictUnmarshal(r.Body, contentType, &input); err != nil {
			logger.Error("Bad input", "method", method, "err", err)
			writeResponse(w, nil, awserrors.SerializationException(err.Error()), contentType)
			return
		}

		output, awserr := handler(input)
		writeResponse(w, output, awserr, contentType)
	}
}
