package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostIsAuthor(t *testing.T) {
	post := &Post{Id: 1, AuthorId: 7}

	assert.True(t, post.IsAuthor(7))
	assert.False(t, post.IsAuthor(8))
	assert.False(t, post.IsAuthor(0))

	var missing *Post
	assert.False(t, missing.IsAuthor(7))

	orphan := &Post{Id: 2}
	assert.False(t, orphan.IsAuthor(0))
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "blog_post", Post{}.TableName())
	assert.Equal(t, "comments", Comment{}.TableName())
}
