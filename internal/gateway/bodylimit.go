package gateway

import "net/http"

// BodyLimit caps request bodies at maxBytes. A declared Content-Length above
// the cap is refused up front; bodies without one fail on read with
// *http.MaxBytesError. Non-positive maxBytes disables the cap.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeJSON(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large.")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
