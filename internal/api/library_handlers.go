package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/domain"
	"github.com/chaptrailapp/chaptrail-server/internal/search"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Browse library",
		Description: "Returns the merged library of all tracked titles",
		Tags:        []string{"Library"},
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/search",
		Summary:     "Search library",
		Description: "Full-text search over library titles and descriptions",
		Tags:        []string{"Library"},
	}, s.handleSearchLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "suggestLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/suggest",
		Summary:     "Suggest titles",
		Description: "Returns fuzzy name suggestions for a partial query",
		Tags:        []string{"Library"},
	}, s.handleSuggestLibrary)
}

// ListLibraryInput contains parameters for browsing the library.
type ListLibraryInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Page size"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
}

// ListLibraryResponse contains one page of library entries.
type ListLibraryResponse struct {
	Entries []domain.LibraryEntry `json:"entries" doc:"Library entries, most readers first"`
	Total   int                   `json:"total" doc:"Total entries in the library"`
	BuiltAt time.Time             `json:"built_at" doc:"When this snapshot was built"`
}

// ListLibraryOutput wraps the library page for Huma.
type ListLibraryOutput struct {
	Body ListLibraryResponse
}

func (s *Server) handleListLibrary(_ context.Context, input *ListLibraryInput) (*ListLibraryOutput, error) {
	entries := s.library.Entries()
	total := len(entries)

	start := min(input.Offset, total)
	end := min(start+input.Limit, total)

	return &ListLibraryOutput{Body: ListLibraryResponse{
		Entries: entries[start:end],
		Total:   total,
		BuiltAt: s.library.BuiltAt(),
	}}, nil
}

// SearchLibraryInput contains full-text search parameters.
type SearchLibraryInput struct {
	Query     string `query:"q" required:"true" minLength:"1" doc:"Search query"`
	Origin    string `query:"origin" doc:"Filter to one source website"`
	Limit     int    `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Page size"`
	Offset    int    `query:"offset" default:"0" minimum:"0" doc:"Page offset"`
	SortBy    string `query:"sort" default:"relevance" enum:"relevance,name,readers" doc:"Sort order"`
	Highlight bool   `query:"highlight" doc:"Include match highlighting"`
}

// SearchLibraryOutput wraps search results for Huma.
type SearchLibraryOutput struct {
	Body search.Result
}

func (s *Server) handleSearchLibrary(ctx context.Context, input *SearchLibraryInput) (*SearchLibraryOutput, error) {
	result, err := s.index.Search(ctx, search.Params{
		Query:     input.Query,
		Origin:    input.Origin,
		Limit:     input.Limit,
		Offset:    input.Offset,
		SortBy:    input.SortBy,
		Highlight: input.Highlight,
	})
	if err != nil {
		s.logger.Error("library search failed", "query", input.Query, "error", err)
		return nil, huma.Error500InternalServerError("search failed")
	}
	return &SearchLibraryOutput{Body: *result}, nil
}

// SuggestLibraryInput contains parameters for name suggestions.
type SuggestLibraryInput struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Partial title name"`
}

// SuggestLibraryResponse contains fuzzy-matched title names.
type SuggestLibraryResponse struct {
	Suggestions []string `json:"suggestions" doc:"Matching title names, best first"`
}

// SuggestLibraryOutput wraps suggestions for Huma.
type SuggestLibraryOutput struct {
	Body SuggestLibraryResponse
}

func (s *Server) handleSuggestLibrary(_ context.Context, input *SuggestLibraryInput) (*SuggestLibraryOutput, error) {
	return &SuggestLibraryOutput{Body: SuggestLibraryResponse{
		Suggestions: s.library.Suggest(input.Query),
	}}, nil
}
