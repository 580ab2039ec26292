package scraper

import "fmt"

// LoginError reports a failed credential sequence or a post-login navigation
// that never settled. It is fatal for the site's run.
type LoginError struct {
	Site string
	Err  error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed for %s: %v", e.Site, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
