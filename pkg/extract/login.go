package extract

import "strings"

// SecurityToken returns the CSRF token of the login form.
func SecurityToken(page string) (string, bool) {
	return nonEmpty(firstGroup(securityTokenPattern, page))
}

// LoginTicket returns the login ticket hidden in the login form.
func LoginTicket(page string) (string, bool) {
	return nonEmpty(firstGroup(loginTicketPattern, page))
}

// IsLoginForm reports whether page is the portal's login form, which is what
// every protected page renders for an invalid session.
func IsLoginForm(page string) bool {
	return strings.Contains(page, `<form name="login"`)
}

func nonEmpty(s string, ok bool) (string, bool) {
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
