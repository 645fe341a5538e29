// Package schema compiles declared record models into the settings and
// field-mapping documents an Elasticsearch index is created with.
//
// Models are declared once, either as Model literals or from struct tags via
// ModelOf, and registered in a Registry. CompileSchema, BuildMapping and
// BuildSettings are pure functions over those declarations: they allocate a
// fresh Tree per call and are safe for concurrent use.
package schema
