package service

import (
	"context"

	"github.com/aman-churiwal/blog-api/internal/apperrors"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/repository"
)

type PostService struct {
	posts PostStore
	users UserStore
}

func NewPostService(posts PostStore, users UserStore) *PostService {
	return &PostService{posts: posts, users: users}
}

type PostCreate struct {
	Title    string
	Text     string
	MediaURL *string
}

type PostUpdate struct {
	Title    *string
	Text     *string
	MediaURL *string
}

func (s *PostService) author(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("User not found")
	}
	return user, nil
}

func (s *PostService) ownedAuthor(ctx context.Context, current *models.User, username string) (*models.User, error) {
	user, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	if current == nil || current.ID != user.ID {
		return nil, apperrors.Forbidden("")
	}
	return user, nil
}

func (s *PostService) Create(ctx context.Context, current *models.User, username string, in PostCreate) (*models.Post, error) {
	user, err := s.ownedAuthor(ctx, current, username)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		CreatedByUserID: user.ID,
		Title:           in.Title,
		Text:            in.Text,
		MediaURL:        in.MediaURL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) List(ctx context.Context, username string, params models.PageParams) (models.Page[models.Post], error) {
	user, err := s.author(ctx, username)
	if err != nil {
		return models.Page[models.Post]{}, err
	}

	posts, total, err := s.posts.GetMulti(ctx, repository.Filter{"created_by_user_id": user.ID}, params.Offset(), params.ItemsPerPage)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return models.NewPage(posts, total, params), nil
}

func (s *PostService) Get(ctx context.Context, username string, id uint) (*models.Post, error) {
	user, err := s.author(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, s.posts.Get, user.ID, id)
}

type postGetter func(ctx context.Context, filter repository.Filter) (*models.Post, error)

func (s *PostService) find(ctx context.Context, get postGetter, userID, id uint) (*models.Post, error) {
	post, err := get(ctx, repository.Filter{"id": id, "created_by_user_id": userID})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.NotFound("Post not found")
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, current *models.User, username string, id uint, in PostUpdate) error {
	user, err := s.ownedAuthor(ctx, current, username)
	if err != nil {
		return err
	}
	post, err := s.find(ctx, s.posts.Get, user.ID, id)
	if err != nil {
		return err
	}

	values := make(map[string]any)
	if in.Title != nil {
		values["title"] = *in.Title
	}
	if in.Text != nil {
		values["text"] = *in.Text
	}
	if in.MediaURL != nil {
		values["media_url"] = *in.MediaURL
	}

	return s.posts.Update(ctx, repository.Filter{"id": post.ID}, values)
}

func (s *PostService) Delete(ctx context.Context, current *models.User, username string, id uint) error {
	user, err := s.ownedAuthor(ctx, current, username)
	if err != nil {
		return err
	}
	post, err := s.find(ctx, s.posts.Get, user.ID, id)
	if err != nil {
		return err
	}

	return s.posts.Delete(ctx, repository.Filter{"id": post.ID})
}

// HardDelete purges a post even if it was already soft-deleted.
func (s *PostService) HardDelete(ctx context.Context, username string, id uint) error {
	user, err := s.author(ctx, username)
	if err != nil {
		return err
	}
	post, err := s.find(ctx, s.posts.GetUnscoped, user.ID, id)
	if err != nil {
		return err
	}

	return s.posts.HardDelete(ctx, repository.Filter{"id": post.ID})
}
