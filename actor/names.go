package actor

import (
	"sync/atomic"

	"github.com/hedisam/actorcell/path"
)

// process wide; both start at zero and only grow
var (
	nextRandomName int64
	nextUID        int64
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+~"

// randomName returns "$" followed by the next counter value, least significant six bits
// first. Names never repeat within a process.
func randomName() string {
	return "$" + base64Encode(atomic.AddInt64(&nextRandomName, 1))
}

func base64Encode(v int64) string {
	var out []byte
	for next := v; ; {
		out = append(out, base64Chars[next&63])
		next >>= 6
		if next == 0 {
			break
		}
	}
	return string(out)
}

// newUID returns a fresh incarnation id, never path.UndefinedUID.
func newUID() int64 {
	return atomic.AddInt64(&nextUID, 1)
}

func checkName(name string) error {
	if name == "" {
		return &InvalidActorNameError{Name: name, Reason: "actor name must not be empty"}
	}
	if !path.IsValidPathElement(name) {
		return &InvalidActorNameError{
			Name: name,
			Reason: "actor paths must not start with `$`, include only ASCII letters and digits " +
				"and can only contain these special characters: " + path.ValidSymbols,
		}
	}
	return nil
}
