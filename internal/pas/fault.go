package pas

import (
	"errors"
	"strings"
)

// Fault is a SOAP fault returned by the PAS. Error returns the fault string
// unchanged so callers can surface it as-is.
type Fault struct {
	Code    string `xml:"faultcode"`
	String  string `xml:"faultstring"`
	Detail  string `xml:"detail"`
	Service string `xml:"-"`
	Method  string `xml:"-"`
}

func (f *Fault) Error() string {
	if f.String == "" {
		return "PAS fault " + f.Code
	}
	return f.String
}

// IsSessionExpired reports whether the fault rejects the session token.
func (f *Fault) IsSessionExpired() bool {
	text := strings.ToLower(f.String)
	return strings.Contains(text, "invalid token") ||
		strings.Contains(text, "token has expired") ||
		strings.Contains(text, "not logged in")
}

// AsFault extracts a *Fault from err's chain.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
