// Package urls provides centralized constants for the remote endpoint and the
// other addresses the application shows or connects to by default.
//
// Usage:
//
//	import "github.com/muurk/gallery/internal/urls"
//
//	client := gateway.NewClient(urls.Endpoint)
package urls
