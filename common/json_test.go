package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONValidation(t *testing.T) {
	_, err := NewJSONFromString(`{"a": 1}`)
	require.Nil(t, err)
	_, err = NewJSONFromString(`{"a": `)
	require.NotNil(t, err)
	_, err = NewJSONFromBytes([]byte(`[1, 2, "three"]`))
	require.Nil(t, err)
}

func TestJSONCompareIgnoresKeyOrder(t *testing.T) {
	j1, err := NewJSONFromString(`{"a": 1, "b": 2}`)
	require.Nil(t, err)
	j2, err := NewJSONFromString(`{"b": 2, "a": 1}`)
	require.Nil(t, err)
	c, err := j1.CompareTo(j2)
	require.Nil(t, err)
	require.Equal(t, 0, c)

	j3, err := NewJSONFromString(`{"a": 1, "b": 3}`)
	require.Nil(t, err)
	c, err = j1.CompareTo(j3)
	require.Nil(t, err)
	require.NotEqual(t, 0, c)
}
