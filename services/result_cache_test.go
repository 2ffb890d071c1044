package services

import (
	"testing"
	"time"

	"github.com/GrainArc/DxfSvg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache(t *testing.T) {
	c := NewResultCache(2, time.Minute)
	defer c.Close()

	c.Set("a", []byte("A"), 1)
	time.Sleep(time.Millisecond)
	c.Set("b", []byte("B"), 2)
	item, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("A"), item.Data)
	assert.Equal(t, 1, item.Comments)

	time.Sleep(time.Millisecond)
	c.Set("c", []byte("C"), 0)
	assert.Equal(t, 2, c.Size())
	_, ok = c.Get("a")
	assert.False(t, ok, "最早过期的项被淘汰")
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestResultCacheExpiry(t *testing.T) {
	c := NewResultCache(4, 10*time.Millisecond)
	defer c.Close()
	c.Set("k", []byte("v"), 0)
	time.Sleep(20 * time.Millisecond)
	_, ok := c.Get("k")
	assert.False(t, ok)
	c.Close()
}

func TestRecordServiceDisabled(t *testing.T) {
	s := NewRecordService(nil)
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Save(&models.ConvertRecord{Source: "x"}))
	recs, total, err := s.List(1, 10)
	assert.NoError(t, err)
	assert.Nil(t, recs)
	assert.Zero(t, total)
}

func TestLabelsJSON(t *testing.T) {
	assert.Equal(t, "[]", string(LabelsJSON(nil)))
	labels := models.NewLabelSet()
	labels.Set("10", 10)
	assert.JSONEq(t, `[{"text":"10","measurement":10}]`, string(LabelsJSON(labels)))
}
