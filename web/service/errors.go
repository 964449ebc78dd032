package service

import "errors"

var (
	ErrDuplicateAccount = errors.New("account already exists")
	ErrAccountNotFound  = errors.New("account not found")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("only the author may change this post")
	ErrPostNotFound     = errors.New("post not found")
	ErrDuplicateTitle   = errors.New("a post with that title already exists")
)
