package utils

import (
	"strconv"
	"strings"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// DeletedUserName is the actor name used when the user row no longer exists.
const DeletedUserName = "deleted user"

// FullName joins first and last name the way the LMS displays them.
func FullName(user domain.Record) string {
	return strings.TrimSpace(user.String("firstname") + " " + user.String("lastname"))
}

// User builds the actor for a user row.
func User(cfg *domain.TransformConfig, user domain.Record) domain.Actor {
	actor := domain.Actor{Name: FullName(user)}

	if email := user.String("email"); cfg.SendMbox && email != "" {
		actor.Mbox = "mailto:" + email
		return actor
	}

	name := strconv.FormatInt(user.Int("id"), 10)
	if cfg.SendUsername && user.String("username") != "" {
		name = user.String("username")
	}
	actor.Account = &domain.Account{HomePage: cfg.AppURL, Name: name}
	return actor
}

// DeletedUser is the placeholder actor for a user id with no row.
func DeletedUser(cfg *domain.TransformConfig, userID int64) domain.Actor {
	return domain.Actor{
		Name: DeletedUserName,
		Account: &domain.Account{
			HomePage: cfg.AppURL,
			Name:     strconv.FormatInt(userID, 10),
		},
	}
}
