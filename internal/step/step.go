// Package step implements the counter step: one JSON request in, one JSON
// response out.
//
// A request whose input carries a "start" key (any value, even false or
// null) resets the counter to 1. Otherwise the previous input.sum is
// incremented by one.
package step

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lacquerai/countstep/internal/jsoncodec"
)

const (
	keyInput = "input"
	keyStart = "start"
	keySum   = "sum"
)

// Input is the orchestrator-supplied payload of a request.
type Input struct {
	// Start marks the first iteration. Only its presence matters.
	Start any `json:"start,omitempty" jsonschema:"description=Presence resets the counter to 1; the value is ignored"`
	// Sum is the counter produced by the previous iteration.
	Sum *int64 `json:"sum,omitempty" jsonschema:"description=Counter from the previous iteration"`

	// HasStart is true when the start key was present, regardless of value.
	HasStart bool `json:"-"`
}

// Request is the document read from stdin.
type Request struct {
	Input Input `json:"input" jsonschema:"required"`
}

// Output is the payload handed back to the orchestrator.
type Output struct {
	Sum int64 `json:"sum" jsonschema:"required"`
}

// Response is the document written to stdout.
type Response struct {
	Output Output `json:"output" jsonschema:"required"`
}

// Decode parses raw request text. The returned errors are *ParseError,
// *MissingFieldError or *TypeMismatchError.
func Decode(data []byte) (*Request, error) {
	if !utf8.Valid(data) {
		return nil, &ParseError{Message: "request is not valid UTF-8"}
	}

	var doc any
	if err := jsoncodec.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Message: "invalid JSON", Err: err}
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("expected a JSON object, got %s", jsonType(doc))}
	}

	rawInput, ok := root[keyInput]
	if !ok {
		return nil, &MissingFieldError{Field: keyInput}
	}

	input, ok := rawInput.(map[string]any)
	if !ok {
		return nil, &TypeMismatchError{Field: keyInput, Expected: "object", Got: jsonType(rawInput)}
	}

	req := &Request{}
	if start, ok := input[keyStart]; ok {
		req.Input.HasStart = true
		req.Input.Start = start
	}

	rawSum, ok := input[keySum]
	if !ok {
		if req.Input.HasStart {
			return req, nil
		}
		return nil, &MissingFieldError{Field: keyInput + "." + keySum}
	}

	sum, err := parseSum(rawSum)
	if err != nil {
		if req.Input.HasStart {
			// start wins; a stale or bogus sum alongside it is ignored
			return req, nil
		}
		return nil, err
	}
	req.Input.Sum = &sum

	return req, nil
}

func parseSum(v any) (int64, error) {
	field := keyInput + "." + keySum

	n, ok := v.(json.Number)
	if !ok {
		return 0, &TypeMismatchError{Field: field, Expected: "integer", Got: jsonType(v)}
	}

	if i, err := n.Int64(); err == nil {
		return i, nil
	}

	// Integral values written in float form, e.g. 5.0 or 1e3, are parsed
	// exactly. The exponent bound keeps big.Rat from expanding huge powers.
	raw := n.String()
	if !exponentInRange(raw) {
		return 0, &TypeMismatchError{Field: field, Expected: "integer", Got: "out of range number " + raw}
	}
	r, ok := new(big.Rat).SetString(raw)
	if !ok {
		return 0, &TypeMismatchError{Field: field, Expected: "integer", Got: "number " + raw}
	}
	if !r.IsInt() {
		return 0, &TypeMismatchError{Field: field, Expected: "integer", Got: "fractional number " + raw}
	}
	if !r.Num().IsInt64() {
		return 0, &TypeMismatchError{Field: field, Expected: "integer", Got: "out of range number " + raw}
	}

	return r.Num().Int64(), nil
}

const maxExponent = 400

func exponentInRange(raw string) bool {
	i := strings.IndexAny(raw, "eE")
	if i < 0 {
		return true
	}
	exp, err := strconv.Atoi(raw[i+1:])
	return err == nil && exp >= -maxExponent && exp <= maxExponent
}

// Compute applies the counter rule to a decoded request.
func Compute(req *Request) (*Response, error) {
	if req.Input.HasStart {
		return &Response{Output: Output{Sum: 1}}, nil
	}

	if req.Input.Sum == nil {
		return nil, &MissingFieldError{Field: keyInput + "." + keySum}
	}

	prev := *req.Input.Sum
	if prev == math.MaxInt64 {
		return nil, &TypeMismatchError{
			Field:    keyInput + "." + keySum,
			Expected: "integer below " + strconv.FormatInt(math.MaxInt64, 10),
			Got:      strconv.FormatInt(prev, 10),
		}
	}

	return &Response{Output: Output{Sum: prev + 1}}, nil
}

// Encode serializes resp as compact JSON with no trailing newline. A
// non-empty indent pretty-prints it.
func Encode(resp *Response, indent string) ([]byte, error) {
	if indent != "" {
		return jsoncodec.MarshalIndent(resp, "", indent)
	}
	return jsoncodec.Marshal(resp)
}

// Options tweak how Process writes its response.
type Options struct {
	Indent string
}

// Process runs one request-response cycle: read r to EOF, decode, compute
// and write the encoded response to w with a single Write. Nothing is
// written to w when any step fails.
func Process(ctx context.Context, r io.Reader, w io.Writer, opts Options) (*Response, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}

	req, err := Decode(data)
	if err != nil {
		return nil, err
	}

	resp, err := Compute(req)
	if err != nil {
		return nil, err
	}

	out, err := Encode(resp, opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := w.Write(out); err != nil {
		return nil, fmt.Errorf("writing response: %w", err)
	}

	return resp, nil
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
