// Package path builds hierarchical actor paths and validates path elements.
package path

import (
	"strconv"
	"strings"
)

// UndefinedUID marks a path whose incarnation is not known.
const UndefinedUID int64 = 0

// ValidSymbols are the non alphanumeric characters allowed in a path element.
const ValidSymbols = `"-_.*$+:@&=,!~';`

// Path addresses one actor incarnation inside a system. Paths are immutable.
type Path struct {
	parent  *Path
	address string
	name    string
	uid     int64
}

// Root returns the root path of the named system.
func Root(system string) *Path {
	return &Path{address: "actor://" + system, name: "/"}
}

// Child returns the path of a child named name with incarnation uid.
func (p *Path) Child(name string, uid int64) *Path {
	return &Path{parent: p, address: p.address, name: name, uid: uid}
}

// Parent returns the parent path, or the receiver for a root path.
func (p *Path) Parent() *Path {
	if p.parent == nil {
		return p
	}
	return p.parent
}

// Name returns the last element of the path.
func (p *Path) Name() string {
	return p.name
}

// UID returns the incarnation id; UndefinedUID for roots.
func (p *Path) UID() int64 {
	return p.uid
}

// Address returns the system address shared by every path of a system.
func (p *Path) Address() string {
	return p.address
}

// IsRoot reports whether p is the root of its system.
func (p *Path) IsRoot() bool {
	return p.parent == nil
}

// Elements returns the names from the root (excluded) down to p.
func (p *Path) Elements() []string {
	var elements []string
	for cur := p; cur.parent != nil; cur = cur.parent {
		elements = append(elements, cur.name)
	}
	for i, j := 0, len(elements)-1; i < j; i, j = i+1, j-1 {
		elements[i], elements[j] = elements[j], elements[i]
	}
	return elements
}

// String renders the path without the incarnation, e.g. actor://sys/user/worker.
func (p *Path) String() string {
	return p.address + "/" + strings.Join(p.Elements(), "/")
}

// StringWithUID renders the path followed by #uid, identifying a single incarnation.
func (p *Path) StringWithUID() string {
	if p.uid == UndefinedUID {
		return p.String()
	}
	return p.String() + "#" + strconv.FormatInt(p.uid, 10)
}

// Equal reports whether both paths name the same incarnation.
func (p *Path) Equal(other *Path) bool {
	if p == other {
		return true
	}
	if p == nil || other == nil {
		return false
	}
	return p.uid == other.uid && p.name == other.name && p.address == other.address &&
		p.Parent().String() == other.Parent().String()
}

// IsValidPathElement reports whether s may be used as a user supplied actor name:
// non-empty, not starting with '$', made of ASCII letters, digits and ValidSymbols.
func IsValidPathElement(s string) bool {
	if s == "" || s[0] == '$' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isValidChar(s[i]) {
			return false
		}
	}
	return true
}

func isValidChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		strings.IndexByte(ValidSymbols, c) >= 0
}

// SplitNameAndUID splits "name#uid". A missing or malformed uid yields UndefinedUID.
func SplitNameAndUID(name string) (string, int64) {
	i := strings.IndexByte(name, '#')
	if i < 0 {
		return name, UndefinedUID
	}
	uid, err := strconv.ParseInt(name[i+1:], 10, 64)
	if err != nil {
		return name[:i], UndefinedUID
	}
	return name[:i], uid
}
