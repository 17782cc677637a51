package repository

import (
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
)

type PostRepository struct {
	*Repository[models.Post]
}

func NewPostRepository(db *storage.Postgres) *PostRepository {
	return &PostRepository{
		Repository: New[models.Post](db, WithSoftDelete(), WithOrder("created_at DESC, id DESC")),
	}
}
