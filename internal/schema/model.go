package schema

// Default index settings applied when a Document leaves them unset.
const (
	DefaultShards          = 5
	DefaultReplicas        = 1
	DefaultRefreshInterval = "1s"
)

// Document declares the index identity and index-level settings of a model.
// A model without its own Document inherits the nearest ancestor's.
type Document struct {
	IndexName string
	TypeName  string
	// Shards defaults to DefaultShards when zero
	Shards int
	// Replicas defaults to DefaultReplicas when nil; zero replicas is valid
	Replicas *int
	// RefreshInterval defaults to DefaultRefreshInterval when empty
	RefreshInterval string
}

// Replicas returns a pointer suitable for Document.Replicas
func Replicas(n int) *int {
	return &n
}

// Property carries the mapping intent of a single field.
// The zero value maps to an indexed, unstored field whose type the engine infers.
type Property struct {
	Type            FieldType
	NoIndex         bool
	Store           bool
	FieldData       bool
	Format          DateFormat
	Pattern         string
	Analyzer        string
	SearchAnalyzer  string
	Normalizer      string
	CopyTo          []string
	IgnoreFields    []string
	IncludeInParent bool
}

// InnerField is one named variant of a multi field, emitted under fields.<Suffix>
type InnerField struct {
	Suffix         string
	Type           FieldType
	NoIndex        bool
	Store          bool
	FieldData      bool
	Format         DateFormat
	Pattern        string
	Analyzer       string
	SearchAnalyzer string
	Normalizer     string
}

// FieldSpec is the declared mapping of a field: either Simple or Multi
type FieldSpec interface {
	fieldSpec()
	mainType() FieldType
}

// Simple maps a field with a single Property
type Simple struct {
	Property
}

// Multi maps a field with a main Property and ordered inner variants
type Multi struct {
	Main  Property
	Inner []InnerField
}

func (Simple) fieldSpec() {}
func (Multi) fieldSpec()  {}

func (s Simple) mainType() FieldType { return s.Type }
func (m Multi) mainType() FieldType  { return m.Main.Type }

// Field is one declared member of a model
type Field struct {
	Name string
	// Spec is nil for fields that do not participate in the mapping
	Spec FieldSpec
	// ID marks the identifier field
	ID bool
	// Member describes the sub-record of Nested and Object fields
	Member *Model
}

// Model is the statically declared description of a record type
type Model struct {
	Name     string
	Document *Document
	Fields   []Field
	// Parent is the embedded ancestor whose fields follow this model's own
	Parent *Model
}
