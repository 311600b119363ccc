package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"group-service/internal/models"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository defines interactions for group-scoped posts.
type PostRepository interface {
	CreatePost(ctx context.Context, groupID int, authorID int, content, link, imageURL string) (models.Post, error)
	ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error)
	GetPost(ctx context.Context, postID int) (models.Post, error)
	DeletePost(ctx context.Context, postID int) error
}

// PostRepo is a sqlx-backed implementation.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

const postColumns = `id, group_id, author_id, content, link, image_url, created_at`

// CreatePost persists a post in a group.
func (r *PostRepo) CreatePost(ctx context.Context, groupID int, authorID int, content, link, imageURL string) (models.Post, error) {
	var post models.Post
	err := r.db.QueryRowxContext(ctx, `INSERT INTO posts (group_id, author_id, content, link, image_url) VALUES ($1, $2, $3, $4, $5) RETURNING `+postColumns, groupID, authorID, content, link, imageURL).
		StructScan(&post)
	return post, err
}

// ListGroupPosts returns the group's posts ordered by creation.
func (r *PostRepo) ListGroupPosts(ctx context.Context, groupID int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts, `SELECT `+postColumns+` FROM posts WHERE group_id=$1 ORDER BY created_at ASC`, groupID)
	return posts, err
}

// GetPost fetches a single post.
func (r *PostRepo) GetPost(ctx context.Context, postID int) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts WHERE id=$1`, postID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	return post, err
}

// DeletePost removes a post.
func (r *PostRepo) DeletePost(ctx context.Context, postID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1`, postID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrPostNotFound
	}
	return nil
}
