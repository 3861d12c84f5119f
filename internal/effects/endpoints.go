package effects

import "strings"

// Default endpoint values. Friends uses the login endpoint and reads a
// "friends" array from it.
const (
	DefaultBaseURL     = "https://httpbin.org"
	DefaultLoginPath   = "basic-auth/admin/secret"
	DefaultFriendsPath = "basic-auth/admin/secret"
)

// Endpoints locates the remote resources.
type Endpoints struct {
	BaseURL     string
	LoginPath   string
	FriendsPath string
}

// DefaultEndpoints returns the built-in endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		BaseURL:     DefaultBaseURL,
		LoginPath:   DefaultLoginPath,
		FriendsPath: DefaultFriendsPath,
	}
}

// LoginURL is the absolute login URL.
func (e Endpoints) LoginURL() string {
	return joinURL(e.BaseURL, e.LoginPath)
}

// FriendsURL is the absolute friends URL.
func (e Endpoints) FriendsURL() string {
	return joinURL(e.BaseURL, e.FriendsPath)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
