package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for library documents.
//
// Names get full-text search with English stemming and term vectors for
// highlighting; origins are exact keywords for filtering; reader and server
// counts are numeric for popularity sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name - primary search target
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Description - searchable but not stored (too large)
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	// ID - stored but not analyzed
	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	// Origins - exact match filtering on humanized source names
	originsFieldMapping := bleve.NewTextFieldMapping()
	originsFieldMapping.Analyzer = keyword.Name
	originsFieldMapping.Store = true
	originsFieldMapping.IncludeTermVectors = true // For faceting
	docMapping.AddFieldMappingsAt("origins", originsFieldMapping)

	// Chapter - stored for display, not analyzed
	chapterFieldMapping := bleve.NewTextFieldMapping()
	chapterFieldMapping.Analyzer = keyword.Name
	chapterFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("chapter", chapterFieldMapping)

	// Reader and server counts - for popularity sorting
	readersFieldMapping := bleve.NewNumericFieldMapping()
	readersFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("readers", readersFieldMapping)

	serversFieldMapping := bleve.NewNumericFieldMapping()
	serversFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("servers", serversFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
