package schema

import "slices"

// Mapping parameter names in the engine's vocabulary
const (
	ParamType            = "type"
	ParamStore           = "store"
	ParamFieldData       = "fielddata"
	ParamIndex           = "index"
	ParamFormat          = "format"
	ParamAnalyzer        = "analyzer"
	ParamSearchAnalyzer  = "search_analyzer"
	ParamNormalizer      = "normalizer"
	ParamCopyTo          = "copy_to"
	ParamProperties      = "properties"
	ParamFields          = "fields"
	ParamIncludeInParent = "include_in_parent"
)

// BuildMapping compiles the field mapping of m. The result holds only the
// root "properties" tree; wrapping it under a type name is left to the
// index-administration client. When idField is empty the field carrying the
// ID marker is used as identifier.
func BuildMapping(m *Model, idField string) (*Tree, error) {
	if m == nil {
		return nil, schemaErr("", "", "nil model")
	}
	if idField == "" {
		idField = IdentifierField(m)
	}
	b := &mappingBuilder{visiting: make(map[*Model]bool)}
	props, err := b.properties(m, true, idField, nil)
	if err != nil {
		return nil, err
	}
	return newTree().set(ParamProperties, props), nil
}

type mappingBuilder struct {
	visiting map[*Model]bool
}

// properties renders the participating fields of m into a fresh tree
func (b *mappingBuilder) properties(m *Model, root bool, idField string, ignore []string) (*Tree, error) {
	if b.visiting[m] {
		return nil, schemaErr(m.Name, "", "model refers to itself through nested or object fields")
	}
	b.visiting[m] = true
	defer delete(b.visiting, m)

	props := newTree()
	for _, d := range DescribeFields(m, idField) {
		if slices.Contains(ignore, d.Name) {
			continue
		}
		if props.Has(d.Name) {
			return nil, schemaErr(d.Owner, d.Name, "field is declared more than once")
		}

		var (
			node *Tree
			err  error
		)
		switch {
		case d.NestedOrObject:
			node, err = b.container(d)
		case root && d.Identifier:
			node = identifierMapping()
		default:
			node, err = leafMapping(d)
		}
		if err != nil {
			return nil, err
		}
		props.set(d.Name, node)
	}
	return props, nil
}

// container renders a nested or object field and descends into its member model
func (b *mappingBuilder) container(d Descriptor) (*Tree, error) {
	spec := d.Spec.(Simple)
	node := newTree().set(ParamType, d.Type.String())
	if spec.IncludeInParent {
		node.set(ParamIncludeInParent, true)
	}

	props := newTree()
	if d.Member != nil {
		var err error
		props, err = b.properties(d.Member, false, "", spec.IgnoreFields)
		if err != nil {
			return nil, err
		}
	}
	return node.set(ParamProperties, props), nil
}

// identifierMapping is fixed regardless of the field's declared Property
func identifierMapping() *Tree {
	return newTree().
		set(ParamType, Keyword.String()).
		set(ParamIndex, true)
}

func leafMapping(d Descriptor) (*Tree, error) {
	switch spec := d.Spec.(type) {
	case Simple:
		if err := validateProperty(d, spec.Property); err != nil {
			return nil, err
		}
		return fromProperty(spec.Property).render(), nil

	case Multi:
		if err := validateMulti(d, spec); err != nil {
			return nil, err
		}
		node := fromProperty(spec.Main).render()
		fields := newTree()
		for _, inner := range spec.Inner {
			fields.set(inner.Suffix, fromInner(inner).render())
		}
		return node.set(ParamFields, fields), nil

	default:
		return nil, schemaErr(d.Owner, d.Name, "unsupported field spec %T", d.Spec)
	}
}

func validateProperty(d Descriptor, p Property) error {
	if p.IncludeInParent && p.Type != Nested {
		return schemaErr(d.Owner, d.Name, "include_in_parent requires a nested field, got %s", p.Type)
	}
	if p.Type == Date && p.Format == FormatCustom && p.Pattern == "" {
		return schemaErr(d.Owner, d.Name, "custom date format without a pattern")
	}
	return nil
}

func validateMulti(d Descriptor, m Multi) error {
	if m.Main.Type.IsContainer() {
		return schemaErr(d.Owner, d.Name, "multi field main type cannot be %s", m.Main.Type)
	}
	if err := validateProperty(d, m.Main); err != nil {
		return err
	}
	seen := make(map[string]bool, len(m.Inner))
	for _, inner := range m.Inner {
		if inner.Suffix == "" {
			return schemaErr(d.Owner, d.Name, "inner field without a suffix")
		}
		if seen[inner.Suffix] {
			return schemaErr(d.Owner, d.Name, "inner field suffix %q declared more than once", inner.Suffix)
		}
		seen[inner.Suffix] = true
		if inner.Type.IsContainer() {
			return schemaErr(d.Owner, d.Name+"."+inner.Suffix, "inner field type cannot be %s", inner.Type)
		}
		if inner.Type == Date && inner.Format == FormatCustom && inner.Pattern == "" {
			return schemaErr(d.Owner, d.Name+"."+inner.Suffix, "custom date format without a pattern")
		}
	}
	return nil
}

// fieldParams is the common shape of Property and InnerField parameters
type fieldParams struct {
	typ            FieldType
	noIndex        bool
	store          bool
	fieldData      bool
	format         DateFormat
	pattern        string
	analyzer       string
	searchAnalyzer string
	normalizer     string
	copyTo         []string
}

func fromProperty(p Property) fieldParams {
	return fieldParams{
		typ:            p.Type,
		noIndex:        p.NoIndex,
		store:          p.Store,
		fieldData:      p.FieldData,
		format:         p.Format,
		pattern:        p.Pattern,
		analyzer:       p.Analyzer,
		searchAnalyzer: p.SearchAnalyzer,
		normalizer:     p.Normalizer,
		copyTo:         p.CopyTo,
	}
}

func fromInner(f InnerField) fieldParams {
	return fieldParams{
		typ:            f.Type,
		noIndex:        f.NoIndex,
		store:          f.Store,
		fieldData:      f.FieldData,
		format:         f.Format,
		pattern:        f.Pattern,
		analyzer:       f.Analyzer,
		searchAnalyzer: f.SearchAnalyzer,
		normalizer:     f.Normalizer,
	}
}

// render emits parameters in a fixed order, omitting defaults
func (p fieldParams) render() *Tree {
	node := newTree()
	if !p.typ.IsContainer() {
		node.set(ParamStore, p.store)
	}
	if p.fieldData {
		node.set(ParamFieldData, true)
	}
	if p.typ != Auto {
		node.set(ParamType, p.typ.String())
		if p.typ == Date && p.format != FormatNone {
			if p.format == FormatCustom {
				node.set(ParamFormat, p.pattern)
			} else {
				node.set(ParamFormat, p.format.String())
			}
		}
	}
	if p.noIndex {
		node.set(ParamIndex, false)
	}
	if p.analyzer != "" {
		node.set(ParamAnalyzer, p.analyzer)
	}
	if p.searchAnalyzer != "" {
		node.set(ParamSearchAnalyzer, p.searchAnalyzer)
	}
	if p.normalizer != "" {
		node.set(ParamNormalizer, p.normalizer)
	}
	if len(p.copyTo) > 0 {
		node.set(ParamCopyTo, append([]string(nil), p.copyTo...))
	}
	return node
}
