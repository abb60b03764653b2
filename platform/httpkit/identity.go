package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Caller is the authenticated upstream system submitting transactions.
type Caller interface {
	// ClientID is the token subject, e.g. "policy-source".
	ClientID() string
	Scopes() []string
	HasScope(scope string) bool
	IsAuthenticated() bool
}

type caller struct {
	clientID      string
	scopes        []string
	authenticated bool
}

func (c *caller) ClientID() string { return c.clientID }

func (c *caller) Scopes() []string { return c.scopes }

func (c *caller) HasScope(scope string) bool {
	for _, s := range c.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func (c *caller) IsAuthenticated() bool { return c.authenticated }

// GetCaller extracts the Caller placed on the context by AuthRequired.
func GetCaller(c *gin.Context) Caller {
	clientID := c.GetString(ContextClientIDKey)
	if clientID == "" {
		return &caller{}
	}
	scopes, _ := c.Get(ContextScopesKey)
	list, _ := scopes.([]string)
	return &caller{clientID: clientID, scopes: list, authenticated: true}
}

// MustGetCaller aborts with 401 when no caller is present.
func MustGetCaller(c *gin.Context) Caller {
	id := GetCaller(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Kind: "unauthorized"})
		return nil
	}
	return id
}
