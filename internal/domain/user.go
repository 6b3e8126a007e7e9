package domain

// User represents a chat participant identified by the Telegram user id.
type User struct {
	ID       int64
	FriendID *int64
}

// HasFriend reports whether the user has linked a friend.
func (u User) HasFriend() bool {
	return u.FriendID != nil
}
