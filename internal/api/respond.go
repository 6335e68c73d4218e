package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"whatsapp-relay/internal/errs"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto status codes. Anything not
// recognised is an internal error.
func respondError(c *gin.Context, err error) {
	var notReady *errs.NotReadyError
	switch {
	case errors.As(err, &notReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": notReady.Error()})
	case errors.Is(err, errs.ErrSessionNotReady):
		c.JSON(http.StatusBadRequest, gin.H{"error": errs.DefaultNotReadyMessage})
	case errors.Is(err, errs.ErrTemplateNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// flexID accepts an identifier sent either as a JSON number or as a string.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		id, err := parseID(n.String())
		if err != nil {
			return err
		}
		*f = flexID(id)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("id must be a number or a string")
	}
	id, err := parseID(s)
	if err != nil {
		return err
	}
	*f = flexID(id)
	return nil
}
