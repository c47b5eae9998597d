package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-fleetform/pkg/validation"
)

var (
	// ErrContractOperation is returned when the document has no POST
	// operation for the collection path.
	ErrContractOperation = errors.New("payload: contract has no create operation for path")
	// ErrContractViolation wraps the field messages of a failed check.
	ErrContractViolation = errors.New("payload: payload violates contract")
)

// Contract checks built payloads against the request schema of an object's
// create operation.
type Contract struct {
	path   string
	schema *openapi3.Schema
}

// ContractError lists the violations of one check.
type ContractError struct {
	Violations []validation.FieldMessage
}

func (e *ContractError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return fmt.Sprintf("%s: %s", ErrContractViolation, strings.Join(parts, "; "))
}

func (e *ContractError) Unwrap() error { return ErrContractViolation }

// LoadContract parses an OpenAPI document (as served at
// `/o/c/<collection>/openapi.json`) and picks the JSON request schema of the
// POST operation on path.
func LoadContract(ctx context.Context, raw []byte, path string) (*Contract, error) {
	if len(raw) == 0 {
		return nil, errors.New("payload: contract document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("payload: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("payload: validate contract: %w", err)
	}
	if doc.Paths == nil {
		return nil, fmt.Errorf("%w %q", ErrContractOperation, path)
	}

	want := strings.TrimSuffix(path, "/")
	for candidate, item := range doc.Paths.Map() {
		if item == nil || item.Post == nil || strings.TrimSuffix(candidate, "/") != want {
			continue
		}
		schema := requestSchema(item.Post.RequestBody)
		if schema == nil {
			break
		}
		return &Contract{path: path, schema: schema}, nil
	}
	return nil, fmt.Errorf("%w %q", ErrContractOperation, path)
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	mt, ok := body.Value.Content["application/json"]
	if !ok || mt.Schema == nil {
		return nil
	}
	return mt.Schema.Value
}

// Check validates p. Missing required properties are tolerated for drafts.
// Violations are returned as *ContractError.
func (c *Contract) Check(p Payload, isDraft bool) error {
	if c == nil || c.schema == nil {
		return nil
	}
	// round-trip through JSON so values have the types the schema
	// validator expects (float64, map[string]any)
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("payload: encode for contract: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("payload: decode for contract: %w", err)
	}

	err = c.schema.VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var violations []validation.FieldMessage
	for _, item := range flattenErrors(err) {
		var schemaErr *openapi3.SchemaError
		if !errors.As(item, &schemaErr) {
			violations = append(violations, validation.FieldMessage{Message: item.Error()})
			continue
		}
		if isDraft && schemaErr.SchemaField == "required" {
			continue
		}
		violations = append(violations, validation.FieldMessage{
			Field:   strings.Join(schemaErr.JSONPointer(), "/"),
			Message: schemaErr.Reason,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return &ContractError{Violations: violations}
}

func flattenErrors(err error) []error {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		return []error{err}
	}
	var out []error
	for _, item := range multi {
		out = append(out, flattenErrors(item)...)
	}
	return out
}
