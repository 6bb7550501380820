// Package posts is the posts resource: a repository over the posts table
// joined to its owning account, and the HTTP handlers in front of it.
package posts

import (
	"time"

	"github.com/google/uuid"

	"github.com/user/landing-go/listquery"
)

// Post is a live post with its owner's display name joined in.
type Post struct {
	ID          uuid.UUID `json:"id" example:"0b8e2a3c-1f4d-4c1e-9b7a-2d6f8e9a0c11"`
	AccountID   uuid.UUID `json:"account_id" example:"5f3a6d3e-8f0e-4d8a-9a57-0a5f7c8a2b11"`
	AccountName string    `json:"account_name" example:"alice"`
	Contents    string    `json:"contents" example:"hello world"`
	CreatedAt   time.Time `json:"created_at" example:"2024-03-01T12:00:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-03-01T12:00:00Z"`
}

// CreatePostRequest is the body of POST /api/posts.
type CreatePostRequest struct {
	Contents string `json:"contents" validate:"required,max=10000" example:"hello world"`
}

// UpdatePostRequest is the body of PUT /api/posts/{post_id}.
type UpdatePostRequest struct {
	Contents string `json:"contents" validate:"required,max=10000" example:"hello again"`
}

// PostResponse is the {"data": post} envelope.
type PostResponse struct {
	Data *Post `json:"data"`
}

// PostList is the list envelope; it exists for the API docs.
type PostList = listquery.Page[Post]
