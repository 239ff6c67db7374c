package runstate

import "strings"

const (
	keyPrefix = "sales:run"
	latestID  = "latest"
)

// Key addresses one record in Redis.
type Key struct {
	Kind Kind
	ID   string
}

// LatestKey returns the key holding the most recent run of kind.
func LatestKey(kind Kind) Key {
	return Key{Kind: kind, ID: latestID}
}

// String returns the Redis key.
// Format: sales:run:<kind>:<id>
func (k Key) String() string {
	return strings.Join([]string{keyPrefix, string(k.Kind), k.ID}, ":")
}
