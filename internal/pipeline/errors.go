package pipeline

import "fmt"

// ConfigError reports an unknown site key or malformed config. Fatal to the
// site's run, never retried.
type ConfigError struct {
	Site string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for site %q: %v", e.Site, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FetchError reports a network, timeout, or navigation failure. The site's
// session is marked failed; a batch run continues with the next site. Login
// marks the failed-credential subtype.
type FetchError struct {
	Site  string
	Login bool
	Err   error
}

func (e *FetchError) Error() string {
	if e.Login {
		return fmt.Sprintf("login error for site %q: %v", e.Site, e.Err)
	}
	return fmt.Sprintf("fetch error for site %q: %v", e.Site, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistenceError reports a failed gateway call. It aborts the current
// site's remaining record processing.
type PersistenceError struct {
	Site string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error for site %q: %v", e.Site, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
