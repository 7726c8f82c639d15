package common

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/quarrydb/quarry/errors"
)

// JSON holds a JSON document in its raw text form. Documents are kept as received - use
// Canonical for key order insensitive comparison.
type JSON struct {
	raw []byte
}

func NewJSONFromString(s string) (JSON, error) {
	b := []byte(s)
	if !json.Valid(b) {
		return JSON{}, errors.Errorf("invalid JSON document: %s", s)
	}
	return JSON{raw: b}, nil
}

func NewJSONFromBytes(b []byte) (JSON, error) {
	if !json.Valid(b) {
		return JSON{}, errors.Errorf("invalid JSON document: %s", string(b))
	}
	return JSON{raw: b}, nil
}

func (j JSON) Raw() []byte {
	return j.raw
}

func (j JSON) String() string {
	return string(j.raw)
}

// Canonical re-marshals the document so object keys come out sorted and whitespace is
// normalized. Two documents are equal iff their canonical forms are byte equal.
func (j JSON) Canonical() ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(j.raw, &v); err != nil {
		return nil, errors.WithStack(err)
	}
	canon, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return canon, nil
}

func (j JSON) CompareTo(other JSON) (int, error) {
	c1, err := j.Canonical()
	if err != nil {
		return 0, err
	}
	c2, err := other.Canonical()
	if err != nil {
		return 0, err
	}
	return bytes.Compare(c1, c2), nil
}
