package service

import (
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Параметры cookie корреляции
const (
	TrackingCookieName = "_track_session"
	TrackingCookieTTL  = 24 * time.Hour
)

const (
	tokenLinkPrefixLen = 8
	tokenRandomLen     = 21
)

// NewSessionToken выпускает токен корреляции клика:
// префикс id ссылки, время в base36 и 21 символ crypto/rand из nanoid.
// Алфавит nanoid безопасен для значения cookie.
func NewSessionToken(linkID string, now time.Time) (string, error) {
	random, err := gonanoid.New(tokenRandomLen)
	if err != nil {
		return "", err
	}

	prefix := strings.ReplaceAll(linkID, "-", "")
	if len(prefix) > tokenLinkPrefixLen {
		prefix = prefix[:tokenLinkPrefixLen]
	}

	return prefix + "." + strconv.FormatInt(now.UnixNano(), 36) + "." + random, nil
}
