package callback

import (
	"fmt"
	"html"
	"net/http"

	"github.com/jrsteele09/go-oauth-client/authcode"
)

const page = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title></head>
<body><h1>%s</h1><p>%s</p></body></html>
`

func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := authcode.ParseCallbackQuery(r.URL.Query())
		if err != nil {
			// Stray requests (favicon, reloads without parameters) do not end the wait.
			writePage(w, http.StatusBadRequest, "Invalid callback", err.Error())
			return
		}

		if !s.deliver(result{params: params}) {
			writePage(w, http.StatusConflict, "Already received", "This authorization response was already handled.")
			return
		}
		if params.Error != nil {
			writePage(w, http.StatusOK, "Authorization failed", params.Error.Error())
			return
		}
		writePage(w, http.StatusOK, "Authorization received", "You can close this window and return to the terminal.")
	}
}

func writePage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, page, html.EscapeString(title), html.EscapeString(title), html.EscapeString(message))
}
