package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// Struct tag keys understood by ModelOf
const (
	TagField    = "es"
	TagInner    = "es_fields"
	TagDocument = "es_document"
)

// ModelOf derives a Model from the struct tags of v, which must be a struct
// or a pointer to one. It runs once at registration; compiling the result
// never touches reflection again.
//
//	type TrafficInfo struct {
//		_     struct{} `es_document:"index=traffic_index,type=traffic_type,shards=1,replicas=0,refresh_interval=2s"`
//		Route string   `json:"route" es:"text,analyzer=charSplit"`
//		Code  string   `json:"code" es:"text" es_fields:"raw:keyword;sort:keyword,normalizer=lowercase"`
//		Seats []Seat   `json:"seats" es:"nested,include_in_parent,ignore=internal"`
//	}
//
// Fields without an es tag are kept but do not participate in the mapping.
// An untagged embedded struct becomes the model's Parent.
func ModelOf(v any) (*Model, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, schemaErr("", "", "nil value")
	}
	return newTagParser().model(t)
}

type tagParser struct {
	seen map[reflect.Type]*Model
}

func newTagParser() *tagParser {
	return &tagParser{seen: make(map[reflect.Type]*Model)}
}

func (p *tagParser) model(t reflect.Type) (*Model, error) {
	t = structOf(t)
	if t == nil {
		return nil, schemaErr("", "", "model type must be a struct")
	}
	if m, ok := p.seen[t]; ok {
		return m, nil
	}

	m := &Model{Name: t.Name()}
	p.seen[t] = m

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		if tag, ok := sf.Tag.Lookup(TagDocument); ok {
			doc, err := parseDocument(m.Name, tag)
			if err != nil {
				return nil, err
			}
			m.Document = doc
			continue
		}

		_, tagged := sf.Tag.Lookup(TagField)
		if sf.Anonymous && !tagged {
			if structOf(sf.Type) == nil {
				continue
			}
			if m.Parent != nil {
				return nil, schemaErr(m.Name, sf.Name, "only one embedded ancestor is supported")
			}
			parent, err := p.model(sf.Type)
			if err != nil {
				return nil, err
			}
			m.Parent = parent
			continue
		}
		if !sf.IsExported() {
			continue
		}

		f, skip, err := p.field(m.Name, sf)
		if err != nil {
			return nil, err
		}
		if !skip {
			m.Fields = append(m.Fields, f)
		}
	}
	return m, nil
}

func (p *tagParser) field(model string, sf reflect.StructField) (Field, bool, error) {
	f := Field{Name: fieldName(sf)}

	tag, ok := sf.Tag.Lookup(TagField)
	if !ok {
		return f, false, nil
	}
	if tag == "-" {
		return f, true, nil
	}

	opts := strings.Split(tag, ",")
	prop, err := parseProperty(model, f.Name, opts)
	if err != nil {
		return f, false, err
	}
	f.ID = hasOption(opts[1:], "id")

	if inner, ok := sf.Tag.Lookup(TagInner); ok {
		innerFields, err := parseInnerFields(model, f.Name, inner)
		if err != nil {
			return f, false, err
		}
		f.Spec = Multi{Main: prop, Inner: innerFields}
		return f, false, nil
	}

	f.Spec = Simple{Property: prop}
	if prop.Type.IsContainer() {
		if structOf(sf.Type) == nil {
			return f, false, schemaErr(model, f.Name, "%s field must hold a struct, got %s", prop.Type, sf.Type)
		}
		member, err := p.model(sf.Type)
		if err != nil {
			return f, false, err
		}
		f.Member = member
	}
	return f, false, nil
}

// fieldName prefers the json tag name over the Go field name
func fieldName(sf reflect.StructField) string {
	if tag, ok := sf.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}

// structOf unwraps pointers, slices and arrays down to a struct type
func structOf(t reflect.Type) reflect.Type {
	for {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		case reflect.Struct:
			return t
		default:
			return nil
		}
	}
}

func parseProperty(model, field string, opts []string) (Property, error) {
	var prop Property
	if typ := strings.TrimSpace(opts[0]); typ != "" {
		t, ok := ParseFieldType(typ)
		if !ok {
			return prop, schemaErr(model, field, "unknown field type %q", typ)
		}
		prop.Type = t
	}

	for _, opt := range opts[1:] {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "", "id":
		case "store":
			prop.Store = true
		case "noindex":
			prop.NoIndex = true
		case "fielddata":
			prop.FieldData = true
		case "include_in_parent":
			prop.IncludeInParent = true
		case "format":
			format, pattern, err := parseFormat(model, field, value)
			if err != nil {
				return prop, err
			}
			prop.Format, prop.Pattern = format, pattern
		case "analyzer":
			prop.Analyzer = value
		case "search_analyzer":
			prop.SearchAnalyzer = value
		case "normalizer":
			prop.Normalizer = value
		case "copy_to":
			prop.CopyTo = splitList(value)
		case "ignore":
			prop.IgnoreFields = splitList(value)
		default:
			return prop, schemaErr(model, field, "unknown option %q", key)
		}
	}
	return prop, nil
}

// parseInnerFields reads "suffix:type[,opt...]" entries separated by ';'
func parseInnerFields(model, field, tag string) ([]InnerField, error) {
	var out []InnerField
	for _, spec := range strings.Split(tag, ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		suffix, rest, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, schemaErr(model, field, "inner field %q must be suffix:type", spec)
		}
		prop, err := parseProperty(model, field+"."+suffix, strings.Split(rest, ","))
		if err != nil {
			return nil, err
		}
		if len(prop.CopyTo) > 0 || len(prop.IgnoreFields) > 0 || prop.IncludeInParent {
			return nil, schemaErr(model, field+"."+suffix, "inner fields only accept plain field parameters")
		}
		out = append(out, InnerField{
			Suffix:         strings.TrimSpace(suffix),
			Type:           prop.Type,
			NoIndex:        prop.NoIndex,
			Store:          prop.Store,
			FieldData:      prop.FieldData,
			Format:         prop.Format,
			Pattern:        prop.Pattern,
			Analyzer:       prop.Analyzer,
			SearchAnalyzer: prop.SearchAnalyzer,
			Normalizer:     prop.Normalizer,
		})
	}
	if len(out) == 0 {
		return nil, schemaErr(model, field, "multi field declares no inner fields")
	}
	return out, nil
}

// parseDocument reads "index=..,type=..,shards=..,replicas=..,refresh_interval=.."
func parseDocument(model, tag string) (*Document, error) {
	doc := &Document{}
	for _, opt := range strings.Split(tag, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch key {
		case "":
		case "index":
			doc.IndexName = value
		case "type":
			doc.TypeName = value
		case "shards":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				return nil, schemaErr(model, "", "invalid shard count %q", value)
			}
			doc.Shards = n
		case "replicas":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, schemaErr(model, "", "invalid replica count %q", value)
			}
			doc.Replicas = Replicas(n)
		case "refresh_interval":
			doc.RefreshInterval = value
		default:
			return nil, schemaErr(model, "", "unknown document option %q", key)
		}
	}
	return doc, nil
}

// parseFormat accepts a named date format or a custom pattern
func parseFormat(model, field, value string) (DateFormat, string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return FormatNone, "", schemaErr(model, field, "format requires a value")
	}
	f, ok := ParseDateFormat(value)
	switch {
	case ok && f == FormatCustom:
		return FormatNone, "", schemaErr(model, field, "custom format requires a pattern")
	case ok:
		return f, "", nil
	}
	return FormatCustom, value, nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, "|") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func hasOption(opts []string, name string) bool {
	for _, opt := range opts {
		if strings.TrimSpace(opt) == name {
			return true
		}
	}
	return false
}
