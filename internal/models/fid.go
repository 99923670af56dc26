package models

import (
	"fmt"
	"strconv"
	"strings"
)

// FID is a Farcaster user id. It is stored as a 64-bit integer and only
// becomes a string at the HTTP boundary.
type FID int64

// ParseFID parses a decimal FID. Zero and negative values are rejected.
func ParseFID(s string) (FID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("fid is empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fid %q: %w", s, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid fid %q: must be positive", s)
	}
	return FID(v), nil
}

func (f FID) String() string {
	return strconv.FormatInt(int64(f), 10)
}

// DefaultUsername is the handle given to users created without one.
func (f FID) DefaultUsername() string {
	return "user_" + f.String()
}
