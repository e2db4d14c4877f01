package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var mentionPattern = regexp.MustCompile(`@(?:\[([^\[\]\n]{1,120})\]|([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}))`)

// mentionToken is one candidate mention found in a comment body.
type mentionToken struct {
	email string // set for @user@example.com
	name  string // set for @[First Last]
}

// scanMentions finds mention tokens. A token must start the body or follow
// a character that cannot be part of an email.
func scanMentions(body string) []mentionToken {
	var out []mentionToken
	for _, m := range mentionPattern.FindAllStringSubmatchIndex(body, -1) {
		if m[0] > 0 {
			prev, _ := utf8.DecodeLastRuneInString(body[:m[0]])
			if prev == '@' || prev == '.' || prev == '_' || unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		switch {
		case m[2] >= 0:
			out = append(out, mentionToken{name: strings.Join(strings.Fields(body[m[2]:m[3]]), " ")})
		case m[4] >= 0:
			out = append(out, mentionToken{email: normalizeEmail(body[m[4]:m[5]])})
		}
	}
	return out
}

// resolveMentions maps tokens onto admin identities. names is keyed by
// admin email; display names match case-insensitively. Tokens that match
// nobody are dropped and stay literal in the body.
func resolveMentions(tokens []mentionToken, isAdmin func(string) bool, names map[string]string) []string {
	// A name shared by two admins matches neither.
	byName := make(map[string]string, len(names))
	for email, name := range names {
		key := strings.ToLower(name)
		if _, taken := byName[key]; taken {
			byName[key] = ""
			continue
		}
		byName[key] = email
	}

	seen := map[string]struct{}{}
	var out []string
	for _, t := range tokens {
		email := t.email
		if t.name != "" {
			email = byName[strings.ToLower(t.name)]
		}
		if email == "" || !isAdmin(email) {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

func hasNameToken(tokens []mentionToken) bool {
	for _, t := range tokens {
		if t.name != "" {
			return true
		}
	}
	return false
}
