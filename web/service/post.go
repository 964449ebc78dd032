package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/inkpost/blog/database"
	"github.com/inkpost/blog/database/model"
	"github.com/inkpost/blog/logger"
	"github.com/inkpost/blog/util/common"

	"gorm.io/gorm"
)

// PostInput holds the author-editable fields of a post.
type PostInput struct {
	Title    string
	Subtitle string
	Body     string
	ImgUrl   string
}

type PostService struct {
	db        *gorm.DB
	sanitizer Sanitizer
	now       func() time.Time
}

func NewPostService(db *gorm.DB) *PostService {
	return &PostService{
		db:        db,
		sanitizer: NewBodySanitizer(),
		now:       time.Now,
	}
}

// CanModify reports whether user may edit or delete post.
func CanModify(user *model.User, post *model.Post) bool {
	if user == nil || post == nil {
		return false
	}
	return post.IsAuthor(user.Id)
}

// List returns every post in store order with its author loaded.
func (s *PostService) List() ([]model.Post, error) {
	var posts []model.Post
	err := s.db.Preload("Author").Order("id asc").Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(id int) (*model.Post, error) {
	post := &model.Post{}
	err := s.db.Preload("Author").First(post, id).Error
	if database.IsNotFound(err) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return post, nil
}

func (s *PostService) clean(in PostInput) PostInput {
	return PostInput{
		Title:    strings.TrimSpace(in.Title),
		Subtitle: strings.TrimSpace(in.Subtitle),
		Body:     s.sanitizer.Sanitize(in.Body),
		ImgUrl:   strings.TrimSpace(in.ImgUrl),
	}
}

// Create stores a new post by author dated today.
func (s *PostService) Create(author *model.User, in PostInput) (*model.Post, error) {
	if author == nil {
		return nil, ErrNotAuthenticated
	}
	in = s.clean(in)
	post := &model.Post{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Body:     in.Body,
		ImgUrl:   in.ImgUrl,
		Date:     common.FormatPostDate(s.now()),
		AuthorId: author.Id,
	}
	if err := s.db.Omit("Author", "Comments").Create(post).Error; err != nil {
		if database.IsDuplicate(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	logger.Infof("user %d created post %d", author.Id, post.Id)
	return post, nil
}

// Update changes the editable fields of post on behalf of user. Author and
// date are left as they are.
func (s *PostService) Update(user *model.User, post *model.Post, in PostInput) error {
	if !CanModify(user, post) {
		return ErrForbidden
	}
	in = s.clean(in)
	err := s.db.Model(&model.Post{Id: post.Id}).Updates(map[string]any{
		"title":    in.Title,
		"subtitle": in.Subtitle,
		"body":     in.Body,
		"img_url":  in.ImgUrl,
	}).Error
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update post %d: %w", post.Id, err)
	}
	post.Title, post.Subtitle, post.Body, post.ImgUrl = in.Title, in.Subtitle, in.Body, in.ImgUrl
	logger.Infof("user %d updated post %d", user.Id, post.Id)
	return nil
}

// Delete removes post and its comments on behalf of user.
func (s *PostService) Delete(user *model.User, post *model.Post) error {
	if !CanModify(user, post) {
		return ErrForbidden
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.Id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Post{}, post.Id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", post.Id, err)
	}
	logger.Infof("user %d deleted post %d", user.Id, post.Id)
	return nil
}

func (s *PostService) CountPosts() (int64, error) {
	var count int64
	err := s.db.Model(&model.Post{}).Count(&count).Error
	return count, err
}
