package todoapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const maxBodyBytes = 1 << 20

//go:embed schemas/*.json
var schemaFS embed.FS

func compileSchemas() (create, update *jsonschema.Schema, err error) {
	if create, err = compileSchema("create_todo.json"); err != nil {
		return nil, nil, err
	}
	if update, err = compileSchema("update_todo.json"); err != nil {
		return nil, nil, err
	}
	return create, update, nil
}

func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	url := "https://todoapi.local/schemas/" + name
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return compiler.Compile(url)
}

// requestError is a rejected request body.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string {
	return e.message
}

// decodeBody reads a JSON body, checks it against schema and decodes it
// into dst. Syntax errors are a 400, schema violations a 422.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any) *requestError {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{http.StatusRequestEntityTooLarge, "Request body too large"}
		}
		return &requestError{http.StatusBadRequest, "Invalid request payload"}
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return &requestError{http.StatusBadRequest, "Invalid request payload"}
	}

	if err := schema.Validate(raw); err != nil {
		return &requestError{http.StatusUnprocessableEntity, schemaMessage(err)}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return &requestError{http.StatusUnprocessableEntity, "Invalid request payload"}
	}
	return nil
}

// schemaMessage flattens a validation error into "location: reason" parts.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}

	var parts []string
	collectSchemaErrors(&parts, ve)
	return "Invalid request payload: " + strings.Join(parts, "; ")
}

func collectSchemaErrors(parts *[]string, err *jsonschema.ValidationError) {
	if len(err.Causes) == 0 {
		location := err.InstanceLocation
		if location == "" {
			location = "body"
		}
		*parts = append(*parts, location+": "+err.Message)
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(parts, cause)
	}
}
