package models

import (
	"strings"

	"github.com/mmdatafocus/procurement_backend/config"
	"github.com/mmdatafocus/procurement_backend/gsheets"
	"github.com/mmdatafocus/procurement_backend/utils"
)

const UserRoleAdmin = "admin"

// User is one row of the sheet-backed user directory. Admins get the
// wildcard firm scope.
type User struct {
	Username string `json:"username"`
	Password string `json:"-"`
	FirmName string `json:"firmName"`
	Role     string `json:"role"`
}

var UserColumns = []ColumnRule[User]{
	{0, "username", func(r *User, c gsheets.Cell) { r.Username = c.String() }},
	{1, "password", func(r *User, c gsheets.Cell) { r.Password = c.String() }},
	{2, "firmName", func(r *User, c gsheets.Cell) { r.FirmName = c.String() }},
	{3, "role", func(r *User, c gsheets.Cell) { r.Role = c.String() }},
}

func (r *User) Valid() bool {
	return r.Username != ""
}

func NormalizeUserRows(rows []gsheets.Row) []User {
	out := make([]User, 0, len(rows))
	for _, row := range rows {
		rec := ApplyRules(row, UserColumns)
		if !rec.Valid() {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// FindUser looks a username up case-insensitively, first match wins.
func FindUser(users []User, username string) (User, bool) {
	for _, u := range users {
		if strings.EqualFold(strings.TrimSpace(u.Username), strings.TrimSpace(username)) {
			return u, true
		}
	}
	return User{}, false
}

// CheckPassword verifies a supplied password against the stored credential:
// bcrypt when the row holds a hash, constant-time plain compare for legacy
// rows when the flag allows it.
func (r User) CheckPassword(supplied string) bool {
	if utils.IsBcryptHash(r.Password) {
		return utils.ComparePassword(r.Password, supplied) == nil
	}
	if config.AllowPlaintextPasswords() {
		return utils.PlainCompare(r.Password, supplied)
	}
	return false
}

// Scope is the firm scope the user's session carries: their firm, or the
// wildcard for admins.
func (r User) Scope() string {
	if strings.EqualFold(strings.TrimSpace(r.Role), UserRoleAdmin) {
		return FirmWildcard
	}
	return r.FirmName
}
