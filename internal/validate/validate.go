// Package validate checks change payloads against embedded CUE schemas
// before they are decoded into Go values.
package validate

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaSource string

// Kind names a payload definition in the schema.
type Kind string

const (
	Championship   Kind = "#Championship"
	Track          Kind = "#Track"
	Driver         Kind = "#Driver"
	Event          Kind = "#Event"
	Session        Kind = "#Session"
	StateChange    Kind = "#StateChange"
	ProgressChange Kind = "#ProgressChange"
)

// Error codes
const (
	ErrCodeMalformed = "E201" // payload is not valid JSON
	ErrCodeSchema    = "E202" // payload violates its schema
	ErrCodeDecode    = "E203" // payload passed the schema but did not decode
)

// FieldError is one violation at a path inside the payload.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error reports an invalid payload.
type Error struct {
	Kind   Kind         `json:"kind"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields"`
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		if f.Path == "" {
			parts[i] = f.Message
		} else {
			parts[i] = f.Path + ": " + f.Message
		}
	}
	return fmt.Sprintf("[%s] invalid %s payload: %s", e.Code, strings.TrimPrefix(string(e.Kind), "#"), strings.Join(parts, "; "))
}

// Validator holds the compiled schema. CUE values are not safe for
// concurrent use, so checks are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// MustNew is like New but panics if the embedded schema does not compile.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Check validates data against kind.
func (v *Validator) Check(kind Kind, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.schema.LookupPath(cue.ParsePath(string(kind)))
	if !def.Exists() {
		return fmt.Errorf("unknown payload kind %s", kind)
	}

	expr, err := cuejson.Extract("payload.json", data)
	if err != nil {
		return &Error{Kind: kind, Code: ErrCodeMalformed, Fields: []FieldError{{Message: err.Error()}}}
	}
	doc := v.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &Error{Kind: kind, Code: ErrCodeMalformed, Fields: []FieldError{{Message: err.Error()}}}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &Error{Kind: kind, Code: ErrCodeSchema, Fields: fieldErrors(kind, err)}
	}
	return nil
}

// Decode validates data against kind and then decodes it into dst.
func (v *Validator) Decode(kind Kind, data []byte, dst any) error {
	if err := v.Check(kind, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &Error{Kind: kind, Code: ErrCodeDecode, Fields: []FieldError{{Message: err.Error()}}}
	}
	return nil
}

func fieldErrors(kind Kind, err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		path := e.Path()
		if len(path) > 0 && path[0] == string(kind) {
			path = path[1:]
		}
		format, args := e.Msg()
		out = append(out, FieldError{
			Path:    strings.Join(path, "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}
