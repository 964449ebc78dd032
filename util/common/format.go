package common

import "time"

// PostDateLayout is the layout of the publication date stored on posts,
// e.g. "August 24, 2023".
const PostDateLayout = "January 02, 2006"

// FormatPostDate renders t as a post publication date.
func FormatPostDate(t time.Time) string {
	return t.Format(PostDateLayout)
}
