package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// checkDetailsSchema requires every key the extraction prompt asks for.
// Values may be the "Not Found" sentinel; amounts and numbers are accepted as
// JSON numbers too since models occasionally drop the quotes.
const checkDetailsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "payee_name",
    "amount",
    "date",
    "check_number",
    "check_transit_number",
    "check_institution_number",
    "check_bank_account_number",
    "bank"
  ],
  "properties": {
    "payee_name": {"type": "string"},
    "amount": {"type": ["string", "number"]},
    "date": {"type": "string"},
    "check_number": {"type": ["string", "number"]},
    "check_transit_number": {"type": ["string", "number"]},
    "check_institution_number": {"type": ["string", "number"]},
    "check_bank_account_number": {"type": ["string", "number"]},
    "bank": {"type": "string"},
    "company_name_address": {"type": ["string", "null"]}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *gojsonschema.Schema
	schemaErr      error
)

// CheckDetailsSchema returns the compiled schema for a model reply
func CheckDetailsSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(checkDetailsSchema))
		if schemaErr != nil {
			schemaErr = fmt.Errorf("failed to create schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateCheckDetails validates a decoded model reply against the check details schema
func ValidateCheckDetails(reply map[string]interface{}) error {
	schema, err := CheckDetailsSchema()
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(reply))
	if err != nil {
		return fmt.Errorf("failed to validate: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}
