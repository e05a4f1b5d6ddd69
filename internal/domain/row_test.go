package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRow_NumericAccessors(t *testing.T) {
	row := Row{
		"f64":    float64(12.5),
		"i8":     int8(7),
		"u16":    uint16(300),
		"number": json.Number("42"),
		"text":   "3.25",
		"null":   nil,
	}

	assert.Equal(t, 12.5, row.Float("f64"))
	assert.Equal(t, int64(12), row.Int("f64"))
	assert.Equal(t, int64(7), row.Int("i8"))
	assert.Equal(t, 300.0, row.Float("u16"))
	assert.Equal(t, int64(42), row.Int("number"))
	assert.Equal(t, 3.25, row.Float("text"))
	assert.Equal(t, 0.0, row.Float("missing"))
	assert.Equal(t, "", row.String("null"))
	assert.Nil(t, row.StringPtr("null"))
}

func TestRow_Bool(t *testing.T) {
	row := Row{"a": true, "b": int64(0), "c": "true", "d": uint8(1)}

	assert.True(t, row.Bool("a"))
	assert.False(t, row.Bool("b"))
	assert.True(t, row.Bool("c"))
	assert.True(t, row.Bool("d"))
	assert.False(t, row.Bool("missing"))
}

func TestRow_Matches(t *testing.T) {
	row := Row{"user_id": "u1", "local_id": int8(7), "symbol": "INFY"}

	assert.True(t, row.Matches(Filter{"user_id": "u1"}))
	assert.True(t, row.Matches(Filter{"user_id": "u1", "local_id": int64(7)}))
	assert.False(t, row.Matches(Filter{"user_id": "u2"}))
	assert.False(t, row.Matches(Filter{"exchange": "NSE"}))
	assert.True(t, row.Matches(Filter{}))
}
