// Package models declares the record types indexed by esmapper.
package models

import (
	"fmt"

	"github.com/davidschrooten/esmapper/internal/schema"
)

// All lists the record types registered by Registry
var All = []any{
	TrafficInfo{},
}

// Registry builds a registry holding every model in All
func Registry() (*schema.Registry, error) {
	r := schema.NewRegistry()
	for _, v := range All {
		m, err := schema.ModelOf(v)
		if err != nil {
			return nil, fmt.Errorf("failed to describe %T: %w", v, err)
		}
		if err := r.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register %T: %w", v, err)
		}
	}
	return r, nil
}
