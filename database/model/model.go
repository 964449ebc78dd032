// Package model defines the blog's persisted entities.
package model

// User is a registered account. Password holds the hash, never the plain text.
type User struct {
	Id       int    `gorm:"primaryKey;autoIncrement"`
	Email    string `gorm:"size:250;uniqueIndex;not null"`
	Password string `gorm:"size:250;not null"`
	Name     string `gorm:"size:250;not null"`
}

func (User) TableName() string {
	return "users"
}

// Post is a blog entry owned by exactly one author.
type Post struct {
	Id       int       `gorm:"primaryKey;autoIncrement"`
	Title    string    `gorm:"size:250;uniqueIndex;not null"`
	Subtitle string    `gorm:"size:250;not null"`
	Date     string    `gorm:"size:250;not null"`
	Body     string    `gorm:"type:text;not null"`
	ImgUrl   string    `gorm:"size:250;not null"`
	AuthorId int       `gorm:"index;not null"`
	Author   User      `gorm:"foreignKey:AuthorId;constraint:OnDelete:RESTRICT"`
	Comments []Comment `gorm:"foreignKey:PostId;constraint:OnDelete:CASCADE"`
}

func (Post) TableName() string {
	return "blog_post"
}

// IsAuthor reports whether userId owns the post.
func (p *Post) IsAuthor(userId int) bool {
	return p != nil && userId != 0 && p.AuthorId == userId
}

// Comment belongs to one post and one author.
type Comment struct {
	Id       int    `gorm:"primaryKey;autoIncrement"`
	Text     string `gorm:"column:comment_text;type:text;not null"`
	PostId   int    `gorm:"index;not null"`
	AuthorId int    `gorm:"index;not null"`
	Author   User   `gorm:"foreignKey:AuthorId;constraint:OnDelete:RESTRICT"`
}

func (Comment) TableName() string {
	return "comments"
}
