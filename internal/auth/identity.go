package auth

import (
	"strconv"

	"github.com/aman-churiwal/blog-api/internal/models"
)

// Identity partitions rate-limit windows and carries the caller.
// User is nil for anonymous callers, who are keyed by client address.
type Identity struct {
	User          *models.User
	ClientAddress string
}

func Anonymous(clientAddress string) Identity {
	return Identity{ClientAddress: clientAddress}
}

func FromUser(user *models.User, clientAddress string) Identity {
	return Identity{User: user, ClientAddress: clientAddress}
}

func (i Identity) IsAnonymous() bool {
	return i.User == nil
}

// Key is the user id for authenticated callers and the client address otherwise.
func (i Identity) Key() string {
	if i.User != nil {
		return strconv.FormatUint(uint64(i.User.ID), 10)
	}
	return i.ClientAddress
}
