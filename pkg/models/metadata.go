package models

import "strings"

// Elements is the fixed Dublin Core vocabulary, in declaration order.
// Manifest metadata entries are always emitted in this order.
var Elements = []string{
	"title",
	"creator",
	"subject",
	"description",
	"publisher",
	"contributor",
	"date",
	"type",
	"format",
	"identifier",
	"source",
	"language",
	"relation",
	"coverage",
	"rights",
}

// DescriptiveMetadata holds the fifteen descriptive elements of a manifest.
// Only Title is required when assembling; every other field is optional and
// an empty string means "absent".
type DescriptiveMetadata struct {
	Title       string `json:"title" yaml:"title"`
	Creator     string `json:"creator,omitempty" yaml:"creator"`
	Subject     string `json:"subject,omitempty" yaml:"subject"`
	Description string `json:"description,omitempty" yaml:"description"`
	Publisher   string `json:"publisher,omitempty" yaml:"publisher"`
	Contributor string `json:"contributor,omitempty" yaml:"contributor"`
	Date        string `json:"date,omitempty" yaml:"date"`
	Type        string `json:"type,omitempty" yaml:"type"`
	Format      string `json:"format,omitempty" yaml:"format"`
	Identifier  string `json:"identifier,omitempty" yaml:"identifier"`
	Source      string `json:"source,omitempty" yaml:"source"`
	Language    string `json:"language,omitempty" yaml:"language"`
	Relation    string `json:"relation,omitempty" yaml:"relation"`
	Coverage    string `json:"coverage,omitempty" yaml:"coverage"`
	Rights      string `json:"rights,omitempty" yaml:"rights"`
}

// Field is one (element, value) pair.
type Field struct {
	Name  string
	Value string
}

// Value returns the value of the named element ("" when unknown or absent).
func (m DescriptiveMetadata) Value(name string) string {
	if p := m.ptr(name); p != nil {
		return *p
	}
	return ""
}

// Set assigns the named element and reports whether the name is one of Elements.
func (m *DescriptiveMetadata) Set(name, value string) bool {
	p := m.ptr(name)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Fields returns all fifteen elements in declaration order, empty ones included.
func (m DescriptiveMetadata) Fields() []Field {
	out := make([]Field, 0, len(Elements))
	for _, name := range Elements {
		out = append(out, Field{Name: name, Value: m.Value(name)})
	}
	return out
}

func (m *DescriptiveMetadata) ptr(name string) *string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		return &m.Title
	case "creator":
		return &m.Creator
	case "subject":
		return &m.Subject
	case "description":
		return &m.Description
	case "publisher":
		return &m.Publisher
	case "contributor":
		return &m.Contributor
	case "date":
		return &m.Date
	case "type":
		return &m.Type
	case "format":
		return &m.Format
	case "identifier":
		return &m.Identifier
	case "source":
		return &m.Source
	case "language":
		return &m.Language
	case "relation":
		return &m.Relation
	case "coverage":
		return &m.Coverage
	case "rights":
		return &m.Rights
	default:
		return nil
	}
}

// ElementLabel turns an element name into its display label ("creator" -> "Creator").
func ElementLabel(name string) string {
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// MetadataFromEntries maps manifest metadata entries back onto the fifteen
// elements. Labels are matched case-insensitively; unknown labels are ignored.
func MetadataFromEntries(entries []MetadataEntry) DescriptiveMetadata {
	var m DescriptiveMetadata
	for _, e := range entries {
		label := e.Label.First(DefaultLanguage)
		value := e.Value.First(DefaultLanguage)
		if label == "" || value == "" {
			continue
		}
		m.Set(label, value)
	}
	return m
}
