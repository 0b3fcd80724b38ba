package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection maps patient ids to records and remembers the order in which
// ids were stored. Decoding keeps the order of keys in the JSON object and
// Insert appends, so iteration is deterministic across Load/Save cycles.
//
// The zero value is an empty collection ready to use.
type Collection struct {
	ids     []string
	records map[string]Record
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{records: make(map[string]Record)}
}

// Len reports the number of records.
func (c *Collection) Len() int {
	return len(c.ids)
}

// Has reports whether id is a key of the collection.
func (c *Collection) Has(id string) bool {
	_, ok := c.records[id]
	return ok
}

// Get returns the record stored under id.
func (c *Collection) Get(id string) (Record, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Patient returns the record stored under id together with the id.
func (c *Collection) Patient(id string) (Patient, bool) {
	r, ok := c.records[id]
	if !ok {
		return Patient{}, false
	}
	return Patient{ID: id, Record: r}, true
}

// Insert adds a record under id. It returns false and leaves the
// collection untouched if id is already present.
func (c *Collection) Insert(id string, r Record) bool {
	if c.Has(id) {
		return false
	}
	c.set(id, r)
	return true
}

// set stores r under id, appending id if it is new and keeping its
// position otherwise.
func (c *Collection) set(id string, r Record) {
	if c.records == nil {
		c.records = make(map[string]Record)
	}
	if _, ok := c.records[id]; !ok {
		c.ids = append(c.ids, id)
	}
	c.records[id] = r
}

// IDs returns the ids in storage order.
func (c *Collection) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Patients returns every record with its id, in storage order.
func (c *Collection) Patients() []Patient {
	out := make([]Patient, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, Patient{ID: id, Record: c.records[id]})
	}
	return out
}

// Clone returns an independent copy.
func (c *Collection) Clone() *Collection {
	out := NewCollection()
	for _, id := range c.ids {
		out.set(id, c.records[id])
	}
	return out
}

// MarshalJSON writes the persisted form: a JSON object keyed by id, in
// storage order, without derived fields.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return marshalOrdered(c.ids, func(id string) any { return c.records[id] })
}

// UnmarshalJSON reads a JSON object keyed by id. A repeated key keeps
// its first position and its last value. A JSON null decodes to an empty
// collection.
func (c *Collection) UnmarshalJSON(data []byte) error {
	*c = Collection{records: make(map[string]Record)}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("read collection: expected a JSON object")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read collection key: %w", err)
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("read collection: unexpected key %v", tok)
		}

		var r Record
		if err := dec.Decode(&r); err != nil {
			return fmt.Errorf("read record %q: %w", id, err)
		}
		c.set(id, r)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read collection: %w", err)
	}
	return nil
}

// CollectionView is the response form of a collection: the same ordered
// object as the persisted form, with derived fields on every record.
type CollectionView struct {
	c *Collection
}

// View returns the response form of the collection.
func (c *Collection) View() CollectionView {
	return CollectionView{c: c}
}

// MarshalJSON writes id -> record-with-derived-fields in storage order.
func (v CollectionView) MarshalJSON() ([]byte, error) {
	if v.c == nil {
		return []byte("{}"), nil
	}
	return marshalOrdered(v.c.ids, func(id string) any {
		r := v.c.records[id]
		return PatientView{Record: r, BMI: r.BMI(), Verdict: r.Verdict()}
	})
}

func marshalOrdered(ids []string, value func(id string) any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(value(id))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
