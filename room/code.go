package room

import (
	"errors"
	"strconv"
)

const (
	minCode = 1000
	maxCode = 9999
)

var ErrCodeSpaceExhausted = errors.New("room: no free room code")

// GenerateCode mints a 4-digit code that is neither a live room nor offered
// to another connection, and reserves it for connID.
func (r *Registry) GenerateCode(connID string) (string, error) {
	code, err := r.freeCode()
	if err != nil {
		return "", err
	}

	if s, ok := r.sessions.Get(connID); ok {
		r.release(s)
		s.OfferedCode = code
		r.reserved[code] = connID
	}
	return code, nil
}

func (r *Registry) freeCode() (string, error) {
	for i := 0; i < r.codeAttempts; i++ {
		code := strconv.Itoa(minCode + r.rng.Intn(maxCode-minCode+1))
		if r.available(code) {
			return code, nil
		}
	}

	// saturated: fall back to a deterministic scan from a random start
	span := maxCode - minCode + 1
	start := r.rng.Intn(span)
	for i := 0; i < span; i++ {
		code := strconv.Itoa(minCode + (start+i)%span)
		if r.available(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

func (r *Registry) available(code string) bool {
	if _, live := r.rooms[code]; live {
		return false
	}
	_, offered := r.reserved[code]
	return !offered
}
