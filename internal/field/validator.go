package field

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validator handles field definition validation
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new validator with the given schema file
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateDirectory loads and validates all field definition files in a directory
func (v *Validator) ValidateDirectory(dirPath string) []ValidationError {
	lists, loadErrors := LoadFromDirectory(dirPath)

	var allErrors []ValidationError
	allErrors = append(allErrors, loadErrors...)

	if len(lists) == 0 {
		return allErrors
	}

	for _, list := range lists {
		schemaErrors := v.validateSchema(list.File, list.List)
		allErrors = append(allErrors, schemaErrors...)
	}

	allErrors = append(allErrors, validateUniqueNames(lists)...)

	return allErrors
}

// validateSchema validates a single definition file against the JSON schema
func (v *Validator) validateSchema(file string, list *FieldList) []ValidationError {
	var errors []ValidationError

	// Round-trip through YAML so the schema sees plain maps and scalars
	yamlBytes, err := yaml.Marshal(list)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to marshal field list: %v", err),
		})
		return errors
	}

	var jsonData interface{}
	if err := yaml.Unmarshal(yamlBytes, &jsonData); err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to convert to JSON: %v", err),
		})
		return errors
	}

	if err := v.schema.Validate(jsonData); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(file, validationErr)...)
		} else {
			errors = append(errors, ValidationError{
				File:    file,
				Message: err.Error(),
			})
		}
	}

	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Field:   path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}

// validateUniqueNames checks for field names duplicated within or across files
func validateUniqueNames(lists []ListWithFile) []ValidationError {
	var errors []ValidationError

	nameSeen := make(map[string]string)
	for _, list := range lists {
		for i, f := range list.List.Fields {
			if prevFile, exists := nameSeen[f.Name]; exists {
				errors = append(errors, ValidationError{
					File:    list.File,
					Field:   fmt.Sprintf("fields[%d].name", i),
					Message: fmt.Sprintf("duplicate field name %q (also in %s)", f.Name, filepath.Base(prevFile)),
				})
			} else {
				nameSeen[f.Name] = list.File
			}
		}
	}

	return errors
}
