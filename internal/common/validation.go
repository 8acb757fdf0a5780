package common

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ChatRef is a validated chat or user reference from a tool argument: either
// a numeric Telegram ID or a username.
type ChatRef struct {
	ID       int64
	Username string
}

// IsUsername reports whether the reference must be resolved by name.
func (r ChatRef) IsUsername() bool {
	return r.Username != ""
}

func (r ChatRef) String() string {
	if r.Username != "" {
		return r.Username
	}
	return strconv.FormatInt(r.ID, 10)
}

var usernamePattern = regexp.MustCompile(`^@?[a-zA-Z0-9_]{5,}$`)

// ValidateID checks a raw chat_id/user_id style argument. Integers must fit
// in 64 bits; strings holding decimal integers convert to numeric IDs;
// anything else must look like a username. Arguments decoded from the wire
// arrive as json.Number.
func ValidateID(name string, value interface{}) (ChatRef, error) {
	switch v := value.(type) {
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			if strings.ContainsAny(v.String(), ".eE") {
				return ChatRef{}, NewValidationError("Invalid %s: %s. Type must be an integer or a string.", name, v.String())
			}
			return ChatRef{}, NewValidationError("Invalid %s: %s. ID is out of the valid integer range.", name, v.String())
		}
		return ChatRef{ID: id}, nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return ChatRef{ID: id}, nil
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return ChatRef{}, NewValidationError("Invalid %s: %s. ID is out of the valid integer range.", name, v)
		}
		if usernamePattern.MatchString(v) {
			return ChatRef{Username: v}, nil
		}
		return ChatRef{}, NewValidationError("Invalid %s: '%s'. Must be a valid integer ID, or a username string.", name, v)
	case int:
		return ChatRef{ID: int64(v)}, nil
	case int64:
		return ChatRef{ID: v}, nil
	default:
		return ChatRef{}, NewValidationError("Invalid %s: %v. Type must be an integer or a string.", name, value)
	}
}

// ValidateIDList validates each element of a list argument. The failure
// message names the parameter itself, not the element position.
func ValidateIDList(name string, values []interface{}) ([]ChatRef, error) {
	refs := make([]ChatRef, 0, len(values))
	for _, item := range values {
		ref, err := ValidateID(name, item)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
