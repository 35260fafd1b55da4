// Package schema validates inbound JSON bodies against the embedded request
// schemas before they are decoded into domain types.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mkdev28/Cropp/internal/domain/model"
)

//go:embed *.schema.json
var files embed.FS

const baseURL = "https://agririsk.dev/schemas/"

// Schema file names.
const (
	FarmRecord   = "farm_record.schema.json"
	BatchRequest = "batch_request.schema.json"
)

// ErrMalformed is returned when a body is not valid JSON.
var ErrMalformed = errors.New("malformed JSON body")

// Validator holds the compiled request schemas.
type Validator struct {
	record  *jsonschema.Schema
	batch   *jsonschema.Schema
	printer *message.Printer
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	for _, name := range []string{FarmRecord, BatchRequest} {
		raw, err := files.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("schema: read %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("schema: parse %s: %w", name, err)
		}
		if err := compiler.AddResource(baseURL+name, doc); err != nil {
			return nil, fmt.Errorf("schema: add %s: %w", name, err)
		}
	}

	record, err := compiler.Compile(baseURL + FarmRecord)
	if err != nil {
		return nil, fmt.Errorf("schema: compile %s: %w", FarmRecord, err)
	}
	batch, err := compiler.Compile(baseURL + BatchRequest)
	if err != nil {
		return nil, fmt.Errorf("schema: compile %s: %w", BatchRequest, err)
	}

	return &Validator{
		record:  record,
		batch:   batch,
		printer: message.NewPrinter(language.English),
	}, nil
}

// DecodeRecord validates body against the farm record schema and decodes it.
func (v *Validator) DecodeRecord(body []byte) (model.FarmRecord, error) {
	var rec model.FarmRecord
	if err := v.validate(v.record, body); err != nil {
		return rec, err
	}
	if err := json.Unmarshal(body, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

// DecodeBatch validates body against the batch schema and returns its inputs.
func (v *Validator) DecodeBatch(body []byte) ([]model.FarmRecord, error) {
	if err := v.validate(v.batch, body); err != nil {
		return nil, err
	}
	var req struct {
		Inputs []model.FarmRecord `json:"inputs"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return req.Inputs, nil
}

func (v *Validator) validate(sch *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("schema: %w", err)
	}
	verr := &model.ValidationError{}
	v.collect(ve, verr)
	return verr
}

// collect flattens the leaf causes into field errors.
func (v *Validator) collect(ve *jsonschema.ValidationError, verr *model.ValidationError) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			v.collect(c, verr)
		}
		return
	}

	if req, ok := ve.ErrorKind.(*kind.Required); ok {
		for _, name := range req.Missing {
			verr.Fields = append(verr.Fields, model.FieldError{
				Field:  fieldPath(append(slices.Clone(ve.InstanceLocation), name)),
				Reason: "is required",
			})
		}
		return
	}

	verr.Fields = append(verr.Fields, model.FieldError{
		Field:  fieldPath(ve.InstanceLocation),
		Reason: ve.ErrorKind.LocalizedString(v.printer),
	})
}

// fieldPath renders ["inputs", "3", "land_acres"] as "inputs[3].land_acres".
func fieldPath(loc []string) string {
	if len(loc) == 0 {
		return "body"
	}
	var b strings.Builder
	for i, seg := range loc {
		if isIndex(seg) {
			b.WriteString("[" + seg + "]")
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
