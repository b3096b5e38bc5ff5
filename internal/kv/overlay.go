package kv

// overlay buffers a transaction's writes so reads can see them before commit.
type overlay struct {
	writes map[string][]byte
	order  []string
	done   bool
}

func newOverlay() overlay {
	return overlay{writes: make(map[string][]byte)}
}

func (o *overlay) get(key string) ([]byte, bool) {
	v, ok := o.writes[key]
	if !ok {
		return nil, false
	}
	return clone(v), true
}

func (o *overlay) set(key string, value []byte) {
	if _, ok := o.writes[key]; !ok {
		o.order = append(o.order, key)
	}
	o.writes[key] = clone(value)
}

// each visits pending writes in first-write order.
func (o *overlay) each(fn func(key string, value []byte)) {
	for _, k := range o.order {
		fn(k, o.writes[k])
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
