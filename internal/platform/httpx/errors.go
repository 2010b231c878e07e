package httpx

import (
	"errors"
	"net/http"
)

// Mapping associates a domain sentinel error with an HTTP status and title.
type Mapping struct {
	Err    error
	Status int
	Title  string
}

// RespondError writes the first matching mapping as an RFC7807 problem.
// Errors outside every mapping become an opaque 500 so internals never
// leak to the client.
func RespondError(w http.ResponseWriter, err error, mappings ...Mapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			Problem(w, m.Status, m.Title, err.Error())
			return
		}
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
