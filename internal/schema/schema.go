package schema

import "encoding/json"

// Schema is the compiled index configuration of one model
type Schema struct {
	IndexName string
	TypeName  string
	Settings  *Tree
	Mapping   *Tree
}

// CompileSchema resolves the model's Document and compiles settings and mapping
func CompileSchema(m *Model) (*Schema, error) {
	doc, err := resolveDocument(m)
	if err != nil {
		return nil, err
	}
	mapping, err := BuildMapping(m, "")
	if err != nil {
		return nil, err
	}
	return &Schema{
		IndexName: doc.IndexName,
		TypeName:  doc.TypeName,
		Settings:  BuildSettings(doc.Shards, *doc.Replicas, doc.RefreshInterval),
		Mapping:   mapping,
	}, nil
}

// IndexNameOf returns the index name declared for m
func IndexNameOf(m *Model) (string, error) {
	doc, err := resolveDocument(m)
	if err != nil {
		return "", err
	}
	return doc.IndexName, nil
}

// TypeNameOf returns the type name declared for m
func TypeNameOf(m *Model) (string, error) {
	doc, err := resolveDocument(m)
	if err != nil {
		return "", err
	}
	return doc.TypeName, nil
}

// Body builds the create-index request body. With legacyTypes the mapping
// is nested under the type name, as engines before typeless mappings expect.
func (s *Schema) Body(legacyTypes bool) *Tree {
	mappings := s.Mapping
	if legacyTypes {
		mappings = newTree().set(s.TypeName, s.Mapping)
	}
	return newTree().
		set("settings", s.Settings).
		set("mappings", mappings)
}

// MarshalJSON renders the schema with its identity, settings and mapping
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(newTree().
		set("index", s.IndexName).
		set("type", s.TypeName).
		set("settings", s.Settings).
		set("mappings", s.Mapping))
}

// MarshalYAML mirrors MarshalJSON
func (s *Schema) MarshalYAML() (any, error) {
	return newTree().
		set("index", s.IndexName).
		set("type", s.TypeName).
		set("settings", s.Settings).
		set("mappings", s.Mapping).
		MarshalYAML()
}
