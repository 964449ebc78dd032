package service

import (
	"fmt"
	"strings"

	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"

	"gorm.io/gorm"
)

type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// ListForPost returns every comment on the post, oldest first, with authors.
func (s *CommentService) ListForPost(postId int) ([]model.Comment, error) {
	var comments []model.Comment
	err := s.db.Preload("Author").
		Where("post_id = ?", postId).
		Order("id asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", postId, err)
	}
	return comments, nil
}

// Add stores a comment by author. Anonymous visitors get ErrNotAuthenticated.
func (s *CommentService) Add(author *model.User, post *model.Post, text string) (*model.Comment, error) {
	if author == nil {
		return nil, ErrNotAuthenticated
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	comment := &model.Comment{
		Text:     strings.TrimSpace(text),
		PostId:   post.Id,
		AuthorId: author.Id,
	}
	if err := s.db.Omit("Author").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *author
	logger.Debugf("user %d commented on post %d", author.Id, post.Id)
	return comment, nil
}
