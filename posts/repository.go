package posts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/db"
	"github.com/user/landing-go/listquery"
)

var (
	// ErrNotFoundOrForbidden is returned for a missing post and for a post
	// owned by someone else; the caller cannot tell the two apart.
	ErrNotFoundOrForbidden = apperror.NewNotFoundError("post not found", nil)

	// ErrAccountGone means a still-valid token names a deleted account.
	ErrAccountGone = apperror.NewAuthError("account no longer exists", nil)
)

const postColumns = `p.id, p.account_id, a.account_name, p.contents, p.created_at, p.updated_at`

// ownerIsLive keeps mutations away from posts whose owner has been
// soft-deleted, even when the caller still holds an unexpired token.
const ownerIsLive = `EXISTS (SELECT 1 FROM accounts a WHERE a.id = posts.account_id AND a.deleted_at IS NULL)`

// Resource is the allow-list for listing posts. Only the joined owner name
// and the body can be filtered; only the owner name can be sorted on.
var Resource = listquery.Resource{
	Select: postColumns,
	From:   "posts p JOIN accounts a ON a.id = p.account_id",
	Where:  "p.deleted_at IS NULL AND a.deleted_at IS NULL",
	Count:  "count(p.id)",
	Filters: map[string]string{
		"account_name": "a.account_name",
		"contents":     "p.contents",
	},
	Sorters: map[string]string{
		"account_name": "a.account_name",
	},
	Tiebreak: "p.created_at DESC, p.id",
}

const (
	selectPostSQL = `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN accounts a ON a.id = p.account_id
		WHERE p.id = $1 AND p.deleted_at IS NULL AND a.deleted_at IS NULL`

	insertPostSQL = `
		WITH inserted AS (
			INSERT INTO posts (account_id, contents)
			SELECT a.id, $2 FROM accounts a WHERE a.id = $1 AND a.deleted_at IS NULL
			RETURNING id, account_id, contents, created_at, updated_at
		)
		SELECT ` + postColumns + `
		FROM inserted p
		JOIN accounts a ON a.id = p.account_id`

	updatePostSQL = `
		WITH updated AS (
			UPDATE posts
			SET contents = $1, updated_at = now()
			WHERE id = $3 AND account_id = $2 AND deleted_at IS NULL
				AND ` + ownerIsLive + `
			RETURNING id, account_id, contents, created_at, updated_at
		)
		SELECT ` + postColumns + `
		FROM updated p
		JOIN accounts a ON a.id = p.account_id`

	deletePostSQL = `
		UPDATE posts
		SET deleted_at = now(), updated_at = now()
		WHERE id = $2 AND account_id = $1 AND deleted_at IS NULL
			AND ` + ownerIsLive
)

// Repository reads and writes posts. Mutations are always scoped to the
// owning account.
type Repository struct {
	db db.TxBeginner
}

// NewRepository creates a Repository on conn, usually the application *db.Pool.
func NewRepository(conn db.TxBeginner) *Repository {
	return &Repository{db: conn}
}

func scanPost(row pgx.Row) (Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AccountID, &p.AccountName, &p.Contents, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns one page of live posts. Invalid parameters fail before any
// statement runs; the rows and the total are read from one snapshot.
func (r *Repository) List(ctx context.Context, params listquery.Params) (*listquery.Page[Post], error) {
	q, err := listquery.Compile(Resource, params)
	if err != nil {
		return nil, err
	}

	var page *listquery.Page[Post]
	err = db.WithTx(ctx, r.db, db.ReadSnapshot, func(ctx context.Context, tx db.DBTX) error {
		var fetchErr error
		page, fetchErr = listquery.Fetch(ctx, tx, q, scanPost)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Get returns a live post by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, selectPostSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFoundOrForbidden
	}
	if err != nil {
		return nil, db.WrapError("failed to load post", err)
	}
	return &post, nil
}

// Create stores a post owned by accountID.
func (r *Repository) Create(ctx context.Context, accountID uuid.UUID, contents string) (*Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, insertPostSQL, accountID, contents))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountGone
	}
	if err != nil {
		return nil, db.WrapError("failed to create post", err)
	}
	return &post, nil
}

// Update replaces the contents of a live post owned by accountID.
func (r *Repository) Update(ctx context.Context, accountID, id uuid.UUID, contents string) (*Post, error) {
	post, err := scanPost(r.db.QueryRow(ctx, updatePostSQL, contents, accountID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFoundOrForbidden
	}
	if err != nil {
		return nil, db.WrapError("failed to update post", err)
	}
	return &post, nil
}

// Delete soft-deletes a live post owned by accountID. The row stays in the
// table with deleted_at set.
func (r *Repository) Delete(ctx context.Context, accountID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deletePostSQL, accountID, id)
	if err != nil {
		return db.WrapError("failed to delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFoundOrForbidden
	}
	return nil
}
