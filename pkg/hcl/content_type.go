package hcl

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

const (
	// ContentTypeHCL is the custom MIME type for HCL configuration
	ContentTypeHCL = "application/vnd.hcl"

	// ContentTypeJSON is the standard MIME type for JSON
	ContentTypeJSON = "application/json"

	// ContentTypeYAML is the MIME type for YAML configuration
	ContentTypeYAML = "application/yaml"
)

var yamlMediaTypes = map[string]bool{
	ContentTypeYAML:      true,
	"application/x-yaml": true,
	"text/yaml":          true,
}

// DetectContentType determines if the content is JSON, YAML or HCL based on
// the Content-Type header, falling back to inspecting the body.
func DetectContentType(r *http.Request) (string, error) {
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			switch {
			case mediaType == ContentTypeHCL:
				return ContentTypeHCL, nil
			case mediaType == ContentTypeJSON:
				return ContentTypeJSON, nil
			case yamlMediaTypes[mediaType]:
				return ContentTypeYAML, nil
			}
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read request body: %w", err)
	}
	// Reset the body so it can be read again later
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	return DetectBytes(body), nil
}

// DetectBytes guesses the format of a config body
func DetectBytes(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ContentTypeJSON
	}

	// JSON starts with { or [, HCL blocks never do
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ContentTypeJSON
	}
	if IsHCL(trimmed) {
		return ContentTypeHCL
	}
	if looksLikeYAML(trimmed) {
		return ContentTypeYAML
	}
	return ContentTypeJSON
}

// looksLikeYAML checks for a document marker or a leading "key:" line.
func looksLikeYAML(body []byte) bool {
	first, _, _ := bytes.Cut(body, []byte("\n"))
	line := strings.TrimSpace(string(first))
	if line == "---" {
		return true
	}
	key, _, ok := strings.Cut(line, ":")
	return ok && key != "" && !strings.ContainsAny(key, " \t={")
}

// IsHCLBasedOnExtension checks if the filename has an HCL extension
func IsHCLBasedOnExtension(filename string) bool {
	return strings.HasSuffix(filename, ".hcl") ||
		strings.HasSuffix(filename, ".tf") ||
		strings.HasSuffix(filename, ".tfvars")
}
