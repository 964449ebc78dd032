package middleware

import (
	"errors"

	"github.com/inkpost/blog/web/service"
)

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrPostNotFound)
}
