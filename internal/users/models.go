package users

import "maps"

// IDField is the document key holding the store-assigned identifier.
const IDField = "_id"

// Document is a user as submitted by clients and returned by stores. Apart
// from IDField the set of fields is not fixed.
type Document map[string]any

// ID returns the identifier of the document, or "" if it has not been assigned.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return maps.Clone(d)
}

// withoutID returns a copy of the document with IDField removed.
func (d Document) withoutID() Document {
	out := d.Clone()
	if out == nil {
		out = Document{}
	}
	delete(out, IDField)
	return out
}
