package rooms

// Rooms are not stored entities. A room key is derived either from the
// sorted pair of participant ids (direct chat) or from the group id, so
// every party computes the identical key without coordination.
//
// Identity ids are UUID strings; the separator is outside the UUID
// charset, so two distinct pairs can never collide into one key.

import "strings"

// Separator joins the two participant ids of a direct room key.
const Separator = "_"

// MaxKeyLen bounds inbound room identifiers.
const MaxKeyLen = 100

// Direct returns the delivery key for a one-to-one conversation. Both
// participants compute the same key regardless of who initiates.
func Direct(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + Separator + userB
}

// Group returns the delivery key for a group conversation.
func Group(groupID string) string {
	return groupID
}

// IsDirect reports whether key names a direct room.
func IsDirect(key string) bool {
	return strings.Contains(key, Separator)
}

// DirectParticipants splits a direct room key into its two user ids.
// ok is false when key is not a direct key.
func DirectParticipants(key string) (userA, userB string, ok bool) {
	parts := strings.SplitN(key, Separator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
