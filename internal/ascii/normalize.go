package ascii

import "golang.org/x/text/secure/precis"

// NormalizeUser case-maps an AUTH login (username or authcid) using
// PRECIS (RFC 8265), the same way the teacher's internal/normalize
// package normalizes a login before comparing it. On error it returns the
// original string, to simplify callers that only use this for
// best-effort comparison.
func NormalizeUser(user string) (string, error) {
	norm, err := precis.UsernameCaseMapped.String(user)
	if err != nil {
		return user, err
	}
	return norm, nil
}

