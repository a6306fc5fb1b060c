// Package source chooses where a document's row data comes from.
//
// Candidates are tried in a fixed priority order and the first non-empty one
// wins; results from different candidates are never merged.
package source

import (
	"context"

	"doc2db/internal/document"
	"doc2db/internal/logger"
	"doc2db/internal/model"
)

// Input is everything a provider may draw rows from.
type Input struct {
	Extraction model.Extraction
	Document   document.Document
	// RawRows holds the parsed rows of a tabular document, header first.
	RawRows [][]string
}

// Provider yields candidate batches. A nil or row-less result means "try the
// next provider".
type Provider func(ctx context.Context, in Input) ([]model.RowBatch, error)

// Named pairs a provider with the name recorded on the extraction.
type Named struct {
	Name     string
	Provider Provider
}

// Provider names recorded on extractions.
const (
	NamePrimary    = "primary"
	NameSecondary  = "secondary_oracle"
	NameHeaderRows = "header_rows"
	NameNone       = "none"
)

// Selector evaluates providers in order.
type Selector struct {
	Providers []Named
	Log       *logger.Logger
}

// Select returns the first non-empty candidate and the name of the provider
// that produced it, or (nil, NameNone). A provider error is logged and
// treated as an empty result.
func (s Selector) Select(ctx context.Context, in Input) ([]model.RowBatch, string) {
	log := s.Log
	if log == nil {
		log = logger.FromContext(ctx)
	}

	for _, p := range s.Providers {
		if ctx.Err() != nil {
			break
		}
		batches, err := p.Provider(ctx, in)
		if err != nil {
			log.WarnWith("row source failed", err, map[string]any{"source": p.Name})
			continue
		}
		if model.RowCount(batches) > 0 {
			log.DebugWith("row source selected", map[string]any{"source": p.Name, "rows": model.RowCount(batches)})
			return batches, p.Name
		}
	}
	return nil, NameNone
}
