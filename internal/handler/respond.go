package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"go-directory-app/internal/apperr"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// errEmptyBody is returned by decodeJSON for a request with no body.
var errEmptyBody = apperr.Validation("missing request body")

// writeJSON encodes v as the response. Once the status is sent an encoding
// failure can no longer be reported, so it is ignored.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return apperr.Validation("malformed JSON body: %v", err)
	}
	return nil
}

// clientAddr is the source address used for rate limiting. chi's RealIP
// middleware has already applied X-Forwarded-For and X-Real-IP.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
