package urlpath

import (
	"net/http"
	"strings"

	"github.com/ts4z/puttleague/he"
)

// IDPathValue extracts the "id" path variable from the request.
//
// On error, an error is reported to the client and the caller should return.
func IDPathValue(w http.ResponseWriter, r *http.Request) (string, error) {
	id, err := idPathValueFromRequest(r)
	if err != nil {
		he.SendErrorToHTTPClient(w, "parsing URL", err)
		return "", err
	}
	return id, nil
}

func idPathValueFromRequest(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", he.HTTPCodedErrorf(400, "no id in url path %q", r.URL.Path)
	}
	return id, nil
}
