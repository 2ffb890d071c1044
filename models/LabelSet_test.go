package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelSetKeepsInsertionOrder(t *testing.T) {
	s := NewLabelSet()
	s.Set("B", 2)
	s.Set("A", 1)
	s.Set("C", 3)
	assert.Equal(t, []string{"B", "A", "C"}, s.Texts())

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, Label{Text: "B", Measurement: 2}, first)
}

func TestLabelSetDuplicateTakesLastMeasurement(t *testing.T) {
	s := NewLabelSet()
	s.Set("25.4", 25.4)
	s.Set("10", 10)
	s.Set("25.4", 25.5)

	assert.Equal(t, 2, s.Len())
	v, ok := s.Get("25.4")
	require.True(t, ok)
	assert.Equal(t, 25.5, v)
	l, _ := s.At(0)
	assert.Equal(t, "25.4", l.Text)
}

func TestLabelSetEmpty(t *testing.T) {
	var s *LabelSet
	assert.Equal(t, 0, s.Len())
	_, ok := s.First()
	assert.False(t, ok)
	_, ok = s.Get("x")
	assert.False(t, ok)

	var zero LabelSet
	zero.Set("x", 1)
	assert.Equal(t, 1, zero.Len())
}
