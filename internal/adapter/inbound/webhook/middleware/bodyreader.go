package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonny/times-relay/pkg/apierror"
)

// MaxBodyBytes bounds interaction payloads.
const MaxBodyBytes = 1 << 20

// rawBodyKey stores the exact request bytes in context; the signature covers them verbatim.
type rawBodyKey struct{}

// BodyReader buffers the request body so it can be verified and then decoded.
// The raw bytes are available downstream through RawBody.
func BodyReader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				apierror.Write(w, apierror.WithDetail(http.StatusRequestEntityTooLarge,
					"request body too large", fmt.Sprintf("limit is %d bytes", tooLarge.Limit)))
				return
			}
			apierror.Write(w, apierror.BadRequest("request body unreadable"))
			return
		}
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		ctx := context.WithValue(r.Context(), rawBodyKey{}, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RawBody returns the bytes buffered by BodyReader.
func RawBody(ctx context.Context) ([]byte, bool) {
	body, ok := ctx.Value(rawBodyKey{}).([]byte)
	return body, ok
}
