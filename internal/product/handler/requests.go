package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

type registerRequest struct {
	ProductID  string `json:"product_id"`
	DetailsURI string `json:"details_uri"`
}

type transferRequest struct {
	NewOwner id.PartyID `json:"new_owner"`
	Status   string     `json:"status"`
}

// decode parses a JSON request body into dst. Malformed JSON is a
// bad_request; a well-formed body with an invalid party id keeps its
// invalid_input code from the id parser.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return de
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}
