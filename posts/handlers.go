package posts

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/auth"
	"github.com/user/landing-go/httpio"
	"github.com/user/landing-go/listquery"
	"github.com/user/landing-go/logging"
)

// Service is the part of Repository the handlers use.
type Service interface {
	List(ctx context.Context, params listquery.Params) (*listquery.Page[Post], error)
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	Create(ctx context.Context, accountID uuid.UUID, contents string) (*Post, error)
	Update(ctx context.Context, accountID, id uuid.UUID, contents string) (*Post, error)
	Delete(ctx context.Context, accountID, id uuid.UUID) error
}

// Handlers serves the post endpoints.
type Handlers struct {
	service Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service Service) *Handlers {
	return &Handlers{service: service}
}

func postID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "post_id"))
	if err != nil {
		return uuid.Nil, apperror.NewBadRequestError("invalid post id", err)
	}
	return id, nil
}

// HandleList godoc
// @Summary List posts
// @Description Lists live posts. Filters are substring matches; several filters are ANDed.
// @Description Sorters are applied in the order given.
// @Tags Posts
// @Produce json
// @Param filters[account_name] query string false "Owner name contains"
// @Param filters[contents] query string false "Contents contain"
// @Param sorters[account_name] query string false "Sort by owner name" Enums(asc, desc)
// @Param page query int false "Page number, from 1" default(1)
// @Param page_size query int false "Rows per page, 1 to 100" default(10)
// @Success 200 {object} posts.PostList
// @Failure 400 {object} apperror.ErrorResponse "Unknown field, bad direction or bad page window"
// @Failure 500 {object} apperror.ErrorResponse
// @Router /posts [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := listquery.Parse(r.URL.RawQuery)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		page, err := h.service.List(r.Context(), params)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		httpio.WriteJSON(w, http.StatusOK, page)
	}
}

// HandleGet godoc
// @Summary Get a post
// @Tags Posts
// @Produce json
// @Param post_id path string true "Post ID" format(uuid)
// @Success 200 {object} posts.PostResponse
// @Failure 400 {object} apperror.ErrorResponse "Malformed id"
// @Failure 404 {object} apperror.ErrorResponse
// @Router /posts/{post_id} [get]
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := postID(r)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		post, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		httpio.WriteJSON(w, http.StatusOK, PostResponse{Data: post})
	}
}

// HandleCreate godoc
// @Summary Create a post
// @Tags Posts
// @Accept json
// @Produce json
// @Param body body posts.CreatePostRequest true "Post contents"
// @Success 201 {object} posts.PostResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Router /posts [post]
// @Security BearerAuth
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.MustClaims(r.Context())
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		var req CreatePostRequest
		if err := httpio.DecodeJSON(w, r, &req); err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		post, err := h.service.Create(r.Context(), claims.AccountID, req.Contents)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		logging.FromContext(r.Context()).Info(r.Context(), "post created", "post_id", post.ID, "account_id", claims.AccountID)
		httpio.WriteJSON(w, http.StatusCreated, PostResponse{Data: post})
	}
}

// HandleUpdate godoc
// @Summary Update a post
// @Description Only the owner can update a post. Someone else's post looks exactly like a missing one.
// @Tags Posts
// @Accept json
// @Produce json
// @Param post_id path string true "Post ID" format(uuid)
// @Param body body posts.UpdatePostRequest true "New contents"
// @Success 200 {object} posts.PostResponse
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Missing or not owned by the caller"
// @Router /posts/{post_id} [put]
// @Security BearerAuth
func (h *Handlers) HandleUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.MustClaims(r.Context())
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		id, err := postID(r)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		var req UpdatePostRequest
		if err := httpio.DecodeJSON(w, r, &req); err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		post, err := h.service.Update(r.Context(), claims.AccountID, id, req.Contents)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		httpio.WriteJSON(w, http.StatusOK, PostResponse{Data: post})
	}
}

// HandleDelete godoc
// @Summary Delete a post
// @Description Soft-deletes a post owned by the caller.
// @Tags Posts
// @Param post_id path string true "Post ID" format(uuid)
// @Success 204
// @Failure 400 {object} apperror.ErrorResponse
// @Failure 401 {object} apperror.ErrorResponse
// @Failure 404 {object} apperror.ErrorResponse "Missing or not owned by the caller"
// @Router /posts/{post_id} [delete]
// @Security BearerAuth
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := auth.MustClaims(r.Context())
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		id, err := postID(r)
		if err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		if err := h.service.Delete(r.Context(), claims.AccountID, id); err != nil {
			httpio.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
