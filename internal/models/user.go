package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// AuthProvider constants
const (
	AuthProviderSupabase = "supabase"
	AuthProviderGoogle   = "google"
	AuthProviderLocal    = "local"
)

// Units constants for distance display
const (
	UnitsYards  = "yards"
	UnitsMeters = "meters"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
)

// User represents an application account. Supabase-authenticated users keep
// the UUID issued by GoTrue so their rows line up with auth.uid() under RLS;
// local and Google accounts get a generated UUID.
type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	Username       string `json:"username,omitempty"`
	FullName       string `json:"full_name,omitempty"`
	HashedPassword string `json:"-"` // bcrypt; empty for non-local providers
	IsActive       bool   `json:"is_active"`
	IsSuperuser    bool   `json:"is_superuser"`
	AuthProvider   string `json:"auth_provider"` // supabase, google, local

	// OAuth linkage (Google accounts)
	OAuthID           string     `json:"-"`
	OAuthAccessToken  string     `json:"-"`
	OAuthRefreshToken string     `json:"-"`
	OAuthTokenExpiry  *time.Time `json:"-"`
	ProfilePicture    string     `json:"profile_picture,omitempty"`

	// Golf profile
	Handicap       *float64 `json:"handicap,omitempty"`
	PreferredUnits string   `json:"preferred_units"` // yards or meters

	// Per-user tracker credentials. When set they take precedence over the
	// globally configured scraper credentials for this user's ETL runs.
	TrackmanUsername string `json:"-"`
	TrackmanPassword string `json:"-"`
	ArccosEmail      string `json:"-"`
	ArccosPassword   string `json:"-"`
	SkyTrakUsername  string `json:"-"`
	SkyTrakPassword  string `json:"-"`

	// Password reset
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasTrackmanCredentials reports whether this user has Trackman login details.
func (u *User) HasTrackmanCredentials() bool {
	return u.TrackmanUsername != "" && u.TrackmanPassword != ""
}

// HasArccosCredentials reports whether this user has Arccos login details.
func (u *User) HasArccosCredentials() bool {
	return u.ArccosEmail != "" && u.ArccosPassword != ""
}

// HasSkyTrakCredentials reports whether this user has SkyTrak login details.
func (u *User) HasSkyTrakCredentials() bool {
	return u.SkyTrakUsername != "" && u.SkyTrakPassword != ""
}

// HasCredentialsFor reports whether this user can run the given source.
func (u *User) HasCredentialsFor(source string) bool {
	switch source {
	case SourceTrackman:
		return u.HasTrackmanCredentials()
	case SourceArccos:
		return u.HasArccosCredentials()
	case SourceSkyTrak:
		return u.HasSkyTrakCredentials()
	}
	return false
}

// ValidateEmail checks an email address for registration.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateUsername checks a username for registration. Usernames are 3-20
// characters of letters, digits, underscore or hyphen.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username must be 3-20 characters (letters, numbers, underscore, hyphen)")
	}
	return nil
}

/// ValidatePassword enforces the password policy: at least 8 characters with
// an uppercase letter, a lowercase letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("password must contain an uppercase letter, a lowercase letter and a number")
	}
	return nil
}

// NormalizeUnits maps arbitrary input to a valid units value, defaulting to yards.
func NormalizeUnits(units string) string {
	if strings.EqualFold(strings.TrimSpace(units), UnitsMeters) {
		return UnitsMeters
	}
	return UnitsYards
}
