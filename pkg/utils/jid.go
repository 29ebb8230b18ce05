package utils

import (
	"strings"
	"unicode"
)

const (
	UserServer  = "s.whatsapp.net"
	GroupServer = "g.us"
)

// OnlyDigits strips everything that is not 0-9.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// UserJID turns a phone number (any formatting) into a user JID string.
// An empty string is returned when no digits are present.
func UserJID(number string) string {
	if strings.Contains(number, "@") {
		return number
	}
	digits := OnlyDigits(number)
	if digits == "" {
		return ""
	}
	return digits + "@" + UserServer
}

// UserPart returns the user portion of a JID, without device suffix.
func UserPart(jid string) string {
	user := strings.SplitN(jid, "@", 2)[0]
	return strings.SplitN(user, ":", 2)[0]
}

func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@"+GroupServer)
}

// SameUser compares two JIDs ignoring device and server suffixes.
func SameUser(a, b string) bool {
	ua, ub := UserPart(a), UserPart(b)
	return ua != "" && ua == ub
}

// DefaultGroupName derives a short name from a group id: the part before
// the @, lowercased, whitespace removed, at most 16 characters.
func DefaultGroupName(groupID string) string {
	name := strings.ToLower(strings.SplitN(groupID, "@", 2)[0])
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, name)
	runes := []rune(name)
	if len(runes) > 16 {
		runes = runes[:16]
	}
	return string(runes)
}
