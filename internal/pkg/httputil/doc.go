// Package httputil holds the JSON response and request helpers shared by the
// API handlers. Errors use the ErrorResponse envelope.
package httputil
