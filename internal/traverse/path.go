package traverse

// Path records where a traversal currently is. Raw is the display path and
// may carry bracketed UIDs for polymorphic branches ("blocks.on[shared.quote]");
// Attribute only grows when a key resolved a schema attribute.
//
// Path is a value: extending it never changes the caller's copy.
type Path struct {
	Raw       string
	Attribute string
}

// WithKey returns p extended by key. The attribute path is extended only when
// resolved is true.
func (p Path) WithKey(key string, resolved bool) Path {
	p.Raw = join(p.Raw, key)
	if resolved {
		p.Attribute = join(p.Attribute, key)
	}
	return p
}

// WithUID returns p with a bracketed UID annotation appended to the raw path.
func (p Path) WithUID(uid string) Path {
	p.Raw = p.Raw + "[" + uid + "]"
	return p
}

func (p Path) String() string {
	return p.Raw
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
