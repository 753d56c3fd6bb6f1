package webd

import (
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"

	ghandlers "github.com/gorilla/handlers"
)

// UploadTokenEnv names the environment variable holding the upload token.
const UploadTokenEnv = "GNEISS_TOKEN"

// tokenAuthenticationMiddleware rejects requests without the upload token with 403.
// Without a configured token, all requests are allowed.
func tokenAuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		validToken := os.Getenv(UploadTokenEnv)
		if validToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			// eg. localhost:3000/rides?filename=ride.gpx&api_token=asdfasdfb
			token = r.URL.Query().Get("api_token")
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(validToken)) != 1 {
			slog.Warn("Invalid token", "method", r.Method, "url", r.URL.Path,
				"remote", r.RemoteAddr, "user-agent", r.UserAgent())
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// commonLogLine formats a request in Apache Common Log Format,
// with any X-Forwarded-For hops appended to the remote host.
func commonLogLine(p ghandlers.LogFormatterParams) string {
	req := p.Request
	username := "-"
	if p.URL.User != nil {
		if name := p.URL.User.Username(); name != "" {
			username = name
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		host = req.RemoteAddr
	}
	for _, v := range req.Header.Values("X-Forwarded-For") {
		host += "->" + v
	}
	uri := req.RequestURI
	if uri == "" {
		uri = p.URL.RequestURI()
	}
	// Escape as a quoted string would, without the quotes.
	uri = strconv.Quote(uri)
	uri = uri[1 : len(uri)-1]
	return fmt.Sprintf("%s - %s [%s] \"%s %s %s\" %d %d",
		host, username, p.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
		req.Method, uri, req.Proto,
		p.StatusCode, p.Size)
}

func writeLog(writer io.Writer, params ghandlers.LogFormatterParams) {
	_, _ = io.WriteString(writer, commonLogLine(params)+"\n")
}

func loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(os.Stdout, next, writeLog)
}
