package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/local-mcps/telegram-mcp/internal/common"
)

// UpdateProfile changes the account's name or bio. Nil fields are left
// untouched.
func (c *Client) UpdateProfile(ctx context.Context, firstName, lastName, about *string) error {
	req := &tg.AccountUpdateProfileRequest{}
	if firstName != nil {
		req.SetFirstName(*firstName)
	}
	if lastName != nil {
		req.SetLastName(*lastName)
	}
	if about != nil {
		req.SetAbout(*about)
	}
	user, err := c.api.AccountUpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	c.rememberUsers([]tg.UserClass{user})
	return nil
}

// SetProfilePhoto uploads a new profile photo.
func (c *Client) SetProfilePhoto(ctx context.Context, path string) error {
	file, err := c.uploadFile(ctx, path)
	if err != nil {
		return err
	}
	req := &tg.PhotosUploadProfilePhotoRequest{}
	req.SetFile(file)
	_, err = c.api.PhotosUploadProfilePhoto(ctx, req)
	return err
}

// DeleteProfilePhoto removes the current profile photo. The bool reports
// whether there was one to delete.
func (c *Client) DeleteProfilePhoto(ctx context.Context) (bool, error) {
	res, err := c.api.PhotosGetUserPhotos(ctx, &tg.PhotosGetUserPhotosRequest{
		UserID: &tg.InputUserSelf{},
		Limit:  1,
	})
	if err != nil {
		return false, err
	}
	photos := photosFromResult(res)
	if len(photos) == 0 {
		return false, nil
	}
	photo, ok := photos[0].(*tg.Photo)
	if !ok {
		return false, nil
	}
	_, err = c.api.PhotosDeletePhotos(ctx, []tg.InputPhotoClass{
		&tg.InputPhoto{
			ID:            photo.ID,
			AccessHash:    photo.AccessHash,
			FileReference: photo.FileReference,
		},
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// UserPhotos lists the profile photo ids of a user.
func (c *Client) UserPhotos(ctx context.Context, ref common.ChatRef, limit int) ([]int64, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return nil, err
	}
	u, ok := entry.inputUser()
	if !ok {
		return nil, fmt.Errorf("peer is not a user")
	}
	res, err := c.api.PhotosGetUserPhotos(ctx, &tg.PhotosGetUserPhotosRequest{
		UserID: u,
		Limit:  limit,
	})
	if err != nil {
		return nil, err
	}
	photos := photosFromResult(res)
	ids := make([]int64, 0, len(photos))
	for _, pc := range photos {
		if p, ok := pc.(*tg.Photo); ok {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func photosFromResult(res tg.PhotosPhotosClass) []tg.PhotoClass {
	switch p := res.(type) {
	case *tg.PhotosPhotos:
		return p.Photos
	case *tg.PhotosPhotosSlice:
		return p.Photos
	}
	return nil
}

// UserStatus describes a user's online presence.
func (c *Client) UserStatus(ctx context.Context, ref common.ChatRef) (string, error) {
	_, entry, err := c.inputPeer(ctx, ref)
	if err != nil {
		return "", err
	}
	u, ok := entry.inputUser()
	if !ok {
		return "", fmt.Errorf("peer is not a user")
	}
	users, err := c.api.UsersGetUsers(ctx, []tg.InputUserClass{u})
	if err != nil {
		return "", err
	}
	c.rememberUsers(users)
	for _, uc := range users {
		user, ok := uc.(*tg.User)
		if !ok {
			continue
		}
		status, _ := user.GetStatus()
		return describeStatus(status), nil
	}
	return "", ErrPeerNotFound
}

func describeStatus(status tg.UserStatusClass) string {
	switch s := status.(type) {
	case *tg.UserStatusOnline:
		return fmt.Sprintf("Online (expires %s)", FormatTime(time.Unix(int64(s.Expires), 0)))
	case *tg.UserStatusOffline:
		return fmt.Sprintf("Last seen %s", FormatTime(time.Unix(int64(s.WasOnline), 0)))
	case *tg.UserStatusRecently:
		return "Last seen recently"
	case *tg.UserStatusLastWeek:
		return "Last seen within a week"
	case *tg.UserStatusLastMonth:
		return "Last seen within a month"
	}
	return "Status unknown"
}

// PrivacyRules fetches the privacy rules for one key.
func (c *Client) PrivacyRules(ctx context.Context, key string) (*PrivacyRules, error) {
	inputKey, err := privacyKey(key)
	if err != nil {
		return nil, err
	}
	res, err := c.api.AccountGetPrivacy(ctx, inputKey)
	if err != nil {
		return nil, err
	}
	c.remember(res.Users, res.Chats)
	rules := &PrivacyRules{Key: key}
	for _, rc := range res.Rules {
		rules.Rules = append(rules.Rules, privacyRuleFromTL(rc))
	}
	return rules, nil
}

func privacyRuleFromTL(rc tg.PrivacyRuleClass) PrivacyRule {
	rule := PrivacyRule{
		Type: strings.TrimPrefix(fmt.Sprintf("%T", rc), "*tg."),
	}
	switch r := rc.(type) {
	case *tg.PrivacyValueAllowUsers:
		rule.UserIDs = r.Users
	case *tg.PrivacyValueDisallowUsers:
		rule.UserIDs = r.Users
	}
	return rule
}

// SetPrivacy replaces the privacy rules for one key. Users that cannot be
// resolved are skipped with a warning. With no users at all the key is
// opened to everyone.
func (c *Client) SetPrivacy(ctx context.Context, key string, allowIDs, disallowIDs []int64) error {
	inputKey, err := privacyKey(key)
	if err != nil {
		return err
	}
	var rules []tg.InputPrivacyRuleClass
	if allow := c.inputUsersLenient(ctx, allowIDs); len(allow) > 0 {
		rules = append(rules, &tg.InputPrivacyValueAllowUsers{Users: allow})
	}
	if disallow := c.inputUsersLenient(ctx, disallowIDs); len(disallow) > 0 {
		rules = append(rules, &tg.InputPrivacyValueDisallowUsers{Users: disallow})
	}
	if len(rules) == 0 {
		rules = []tg.InputPrivacyRuleClass{&tg.InputPrivacyValueAllowAll{}}
	}
	_, err = c.api.AccountSetPrivacy(ctx, &tg.AccountSetPrivacyRequest{
		Key:   inputKey,
		Rules: rules,
	})
	return err
}

func (c *Client) inputUsersLenient(ctx context.Context, userIDs []int64) []tg.InputUserClass {
	users := make([]tg.InputUserClass, 0, len(userIDs))
	for _, id := range userIDs {
		entry, err := c.entryByMarked(ctx, id)
		if err != nil {
			c.logger.Warn("Skipping unresolvable user in privacy rule", "user_id", id, "error", err)
			continue
		}
		u, ok := entry.inputUser()
		if !ok {
			c.logger.Warn("Skipping non-user peer in privacy rule", "user_id", id)
			continue
		}
		users = append(users, u)
	}
	return users
}

func privacyKey(key string) (tg.InputPrivacyKeyClass, error) {
	switch key {
	case "status":
		return &tg.InputPrivacyKeyStatusTimestamp{}, nil
	case "phone":
		return &tg.InputPrivacyKeyPhoneNumber{}, nil
	case "profile_photo":
		return &tg.InputPrivacyKeyProfilePhoto{}, nil
	}
	return nil, fmt.Errorf("unsupported privacy key %q", key)
}
