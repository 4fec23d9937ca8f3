// Package types provides common type definitions used throughout the quickstart CLI.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// MetadataFileName is the sidecar file holding a template's Metadata.
// It lives at the root of every stored template directory.
const MetadataFileName = ".template-meta.json"

// Metadata describes a stored template: its identity, the variables it
// expects when materialized, and the scripts offered after creation.
type Metadata struct {
	// Name is the template identifier and the name of its directory in the store
	Name string `json:"name" yaml:"name"`
	// Description is a human-readable summary shown by list and info
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// CreatedAt records when the template was first stored
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	// Variables are the placeholder tokens the template declares, in order
	Variables []Variable `json:"variables" yaml:"variables"`
	// PostCreationScripts run in the new project directory after materialization
	PostCreationScripts []Script `json:"postCreationScripts" yaml:"postCreationScripts"`
}

// Variable declares a {{name}} placeholder used inside a template.
type Variable struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Default     *string `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool    `json:"required" yaml:"required"`
}

// Script is a shell command offered after a project is created.
type Script struct {
	Name         string `json:"name" yaml:"name"`
	Command      string `json:"command" yaml:"command"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	RunByDefault bool   `json:"runByDefault" yaml:"runByDefault"`
}

// HasDefault reports whether the variable declares a default value.
func (v Variable) HasDefault() bool {
	return v.Default != nil
}

// DefaultValue returns the declared default or the empty string.
func (v Variable) DefaultValue() string {
	if v.Default == nil {
		return ""
	}
	return *v.Default
}

// StringPtr returns a pointer to s. It is convenient for building Variable defaults.
func StringPtr(s string) *string {
	return &s
}

// Normalize replaces nil slices with empty ones so the metadata always
// serializes with explicit lists.
func (m *Metadata) Normalize() {
	if m.Variables == nil {
		m.Variables = []Variable{}
	}
	if m.PostCreationScripts == nil {
		m.PostCreationScripts = []Script{}
	}
}

// DefaultMetadata returns the metadata assumed for a template directory
// that carries no sidecar file.
func DefaultMetadata(name string, now time.Time) Metadata {
	return Metadata{
		Name:                name,
		CreatedAt:           now,
		Variables:           []Variable{},
		PostCreationScripts: []Script{},
	}
}

// FindVariable returns the declared variable with the given name.
func (m *Metadata) FindVariable(name string) (Variable, bool) {
	for _, v := range m.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}
