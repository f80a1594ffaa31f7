package auth

import "strings"

// isLocalPath accepts only same-origin absolute paths.
func isLocalPath(path string) bool {
	switch {
	case path == "", !strings.HasPrefix(path, "/"):
		return false
	case strings.HasPrefix(path, "//"):
		return false
	case strings.Contains(path, "://"), strings.Contains(path, "\\"):
		return false
	}
	return true
}

// SafeRedirectPath returns path when it stays on this site, "/" otherwise.
// Used for the ?redirect= parameter carried through the login form.
func SafeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}
