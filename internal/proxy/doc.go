// Package proxy implements the development CORS proxy that sits between the
// gallery clients and the upstream API.
//
// Requests under the path prefix (default /api) are forwarded to the target
// with the prefix removed, so /api/getdata.php reaches <target>/getdata.php.
// Every response carries permissive (or allow-listed) CORS headers and an
// X-Request-ID. Upstream failures are answered with a plain-text 500 whose
// body is "Proxy error".
//
// Each forwarded request is also published on a websocket feed at /events,
// which `gallery-proxy watch` consumes through Watch.
package proxy
