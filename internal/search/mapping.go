package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/ngram"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/davidschrooten/esmapper/internal/schema"
)

// ngramFilter is the token filter behind the n-gram analyzer
const ngramFilter = "ngram_filter"

// Analyzers bleve ships that can be referenced by name without registration
var builtinAnalyzers = map[string]bool{
	standard.Name: true,
	simple.Name:   true,
	keyword.Name:  true,
}

// buildIndexMapping translates a compiled schema into a bleve index mapping.
// copy_to and normalizers have no bleve equivalent and are dropped.
func buildIndexMapping(s *schema.Schema) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	err := im.AddCustomTokenFilter(ngramFilter, map[string]interface{}{
		"type": ngram.Name,
		"min":  float64(schema.NGramMinGram),
		"max":  float64(schema.NGramMaxGram),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add ngram filter: %w", err)
	}
	err = im.AddCustomAnalyzer(schema.NGramAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{ngramFilter},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add %s analyzer: %w", schema.NGramAnalyzer, err)
	}

	doc, err := documentMapping(s.Mapping.Sub(schema.ParamProperties))
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", s.IndexName, err)
	}
	im.DefaultMapping = doc
	return im, nil
}

func documentMapping(props *schema.Tree) (*mapping.DocumentMapping, error) {
	dm := bleve.NewDocumentMapping()
	for _, name := range props.Keys() {
		node := props.Sub(name)
		if node == nil {
			return nil, fmt.Errorf("field %s: mapping is not an object", name)
		}

		typ := stringParam(node, schema.ParamType)
		switch typ {
		case schema.Nested.String(), schema.Object.String():
			sub, err := documentMapping(node.Sub(schema.ParamProperties))
			if err != nil {
				return nil, fmt.Errorf("%s.%w", name, err)
			}
			dm.AddSubDocumentMapping(name, sub)
			continue
		}

		var fields []*mapping.FieldMapping
		if fm := fieldMapping(node); fm != nil {
			fields = append(fields, fm)
		}
		inner := node.Sub(schema.ParamFields)
		for _, suffix := range inner.Keys() {
			fm := fieldMapping(inner.Sub(suffix))
			if fm == nil {
				continue
			}
			fm.Name = name + "." + suffix
			fields = append(fields, fm)
		}
		if len(fields) > 0 {
			dm.AddFieldMappingsAt(name, fields...)
		}
	}
	return dm, nil
}

// fieldMapping returns nil for fields whose type is left to dynamic mapping
func fieldMapping(node *schema.Tree) *mapping.FieldMapping {
	var fm *mapping.FieldMapping
	typ := stringParam(node, schema.ParamType)
	switch typ {
	case schema.Text.String():
		fm = bleve.NewTextFieldMapping()
	case schema.Keyword.String(), schema.IP.String():
		fm = bleve.NewKeywordFieldMapping()
	case schema.Integer.String(), schema.Long.String(), schema.Float.String(), schema.Double.String():
		fm = bleve.NewNumericFieldMapping()
	case schema.Date.String():
		fm = bleve.NewDateTimeFieldMapping()
	case schema.Boolean.String():
		fm = bleve.NewBooleanFieldMapping()
	default:
		return nil
	}

	if store, ok := node.Get(schema.ParamStore); ok {
		fm.Store = store.(bool)
	}
	if index, ok := node.Get(schema.ParamIndex); ok {
		fm.Index = index.(bool)
	}
	if fd, ok := node.Get(schema.ParamFieldData); ok && fd.(bool) {
		fm.DocValues = true
	}
	if typ == schema.Text.String() {
		if analyzer := stringParam(node, schema.ParamAnalyzer); knownAnalyzer(analyzer) {
			fm.Analyzer = analyzer
		}
	}
	return fm
}

func knownAnalyzer(name string) bool {
	return name == schema.NGramAnalyzer || builtinAnalyzers[name]
}

func stringParam(node *schema.Tree, key string) string {
	v, _ := node.Get(key)
	s, _ := v.(string)
	return s
}
