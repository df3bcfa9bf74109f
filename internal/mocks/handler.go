package mocks

import (
	"os"

	"github.com/mcdonaldj/docswap/internal/naming"
	"github.com/mcdonaldj/docswap/internal/ports"
)

// MockHandler implements ports.Handler for testing.
type MockHandler struct {
	// Calls records calls to Transform
	Calls []TransformCall
	// Errors maps source paths to errors
	Errors map[string]error
	// Suffix is used to derive output paths (default "_modified")
	Suffix string
	// Content, when non-nil, is written to every output path
	Content []byte
}

// TransformCall records parameters of a Transform call.
type TransformCall struct {
	Path string
	Sub  ports.Substitution
}

// NewMockHandler creates a new mock handler.
func NewMockHandler() *MockHandler {
	return &MockHandler{
		Errors: make(map[string]error),
		Suffix: "_modified",
	}
}

// Transform records the call and returns the modified sibling of path.
func (m *MockHandler) Transform(path string, sub ports.Substitution) (string, error) {
	m.Calls = append(m.Calls, TransformCall{Path: path, Sub: sub})
	if err, ok := m.Errors[path]; ok {
		return "", err
	}
	out := naming.Modified(path, m.Suffix)
	if m.Content != nil {
		if err := os.WriteFile(out, m.Content, 0644); err != nil {
			return "", err
		}
	}
	return out, nil
}

// Compile-time check that MockHandler implements ports.Handler.
var _ ports.Handler = (*MockHandler)(nil)
