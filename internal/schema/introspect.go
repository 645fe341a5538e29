package schema

// Descriptor is the resolved view of one participating field
type Descriptor struct {
	Owner          string
	Name           string
	Type           FieldType
	NestedOrObject bool
	Identifier     bool
	Spec           FieldSpec
	Member         *Model
}

// DescribeFields lists the participating fields of m: its own fields first,
// then each ancestor's fields. A field is identified either by its ID marker
// or by matching idField when idField is non-empty.
func DescribeFields(m *Model, idField string) []Descriptor {
	var out []Descriptor
	for _, cur := range lineage(m) {
		for _, f := range cur.Fields {
			if f.Spec == nil {
				continue
			}
			t := f.Spec.mainType()
			_, simple := f.Spec.(Simple)
			out = append(out, Descriptor{
				Owner:          cur.Name,
				Name:           f.Name,
				Type:           t,
				NestedOrObject: simple && t.IsContainer(),
				Identifier:     f.ID || (idField != "" && f.Name == idField),
				Spec:           f.Spec,
				Member:         f.Member,
			})
		}
	}
	return out
}

// IdentifierField returns the name of the first field carrying the ID marker
func IdentifierField(m *Model) string {
	for _, cur := range lineage(m) {
		for _, f := range cur.Fields {
			if f.ID {
				return f.Name
			}
		}
	}
	return ""
}

// resolveDocument finds the Document of m or its nearest ancestor and applies defaults
func resolveDocument(m *Model) (Document, error) {
	if m == nil {
		return Document{}, schemaErr("", "", "nil model")
	}
	var doc *Document
	for _, cur := range lineage(m) {
		if cur.Document != nil {
			doc = cur.Document
			break
		}
	}
	if doc == nil {
		return Document{}, schemaErr(m.Name, "", "no document descriptor declared")
	}
	if doc.IndexName == "" {
		return Document{}, schemaErr(m.Name, "", "document descriptor has no index name")
	}
	if doc.TypeName == "" {
		return Document{}, schemaErr(m.Name, "", "document descriptor has no type name")
	}

	resolved := *doc
	switch {
	case resolved.Shards == 0:
		resolved.Shards = DefaultShards
	case resolved.Shards < 0:
		return Document{}, schemaErr(m.Name, "", "shard count must be positive, got %d", resolved.Shards)
	}
	if resolved.Replicas == nil {
		resolved.Replicas = Replicas(DefaultReplicas)
	} else if *resolved.Replicas < 0 {
		return Document{}, schemaErr(m.Name, "", "replica count must not be negative, got %d", *resolved.Replicas)
	} else {
		resolved.Replicas = Replicas(*resolved.Replicas)
	}
	if resolved.RefreshInterval == "" {
		resolved.RefreshInterval = DefaultRefreshInterval
	}
	return resolved, nil
}

// lineage returns m followed by its ancestors, stopping at the first repeat
func lineage(m *Model) []*Model {
	var chain []*Model
	seen := make(map[*Model]bool)
	for cur := m; cur != nil && !seen[cur]; cur = cur.Parent {
		seen[cur] = true
		chain = append(chain, cur)
	}
	return chain
}
