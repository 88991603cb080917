package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/chaptrailapp/chaptrail-server/internal/service"
)

func (s *Server) registerUnreadRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUserUnread",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}/unread",
		Summary:     "Unread queue",
		Description: "Returns a user's unread chapters grouped by title",
		Tags:        []string{"Unread"},
	}, s.handleGetUserUnread)
}

// GetUserUnreadInput contains parameters for reading a user's queue.
type GetUserUnreadInput struct {
	ID string `path:"id" doc:"Chat platform user ID"`
}

// UserUnreadResponse contains a user's unread queue.
type UserUnreadResponse struct {
	Titles []service.TitleGroup `json:"titles" doc:"Unread chapters grouped by title, oldest group first"`
	Count  int                  `json:"count" doc:"Total unread chapters"`
}

// UserUnreadOutput wraps the unread response for Huma.
type UserUnreadOutput struct {
	Body UserUnreadResponse
}

func (s *Server) handleGetUserUnread(_ context.Context, input *GetUserUnreadInput) (*UserUnreadOutput, error) {
	groups, err := s.unread.List(input.ID)
	if err != nil {
		return nil, huma.Error404NotFound("user not found", err)
	}

	count := 0
	for _, g := range groups {
		count += len(g.Chapters)
	}

	return &UserUnreadOutput{Body: UserUnreadResponse{
		Titles: groups,
		Count:  count,
	}}, nil
}
