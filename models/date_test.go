package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.String())

	d, err = ParseDate("2025-06-01T23:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", d.String())

	_, err = ParseDate("01/06/2025")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var payload struct {
		Day  Date  `json:"day"`
		Opt  *Date `json:"opt"`
		Zero Date  `json:"zero"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2025-06-30","opt":null}`), &payload))
	assert.Equal(t, NewDate(2025, time.June, 30), payload.Day)
	assert.Nil(t, payload.Opt)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-06-30","opt":null,"zero":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"day":20250630}`), &payload))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-01", d.String())

	require.NoError(t, d.Scan([]byte("2025-06-02 00:00:00")))
	assert.Equal(t, "2025-06-02", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	assert.Error(t, d.Scan(42))
}

func TestDateOrdering(t *testing.T) {
	today := NewDate(2025, time.June, 15)
	assert.True(t, today.AddDays(1).After(today))
	assert.True(t, today.AddDays(-1).Before(today))
	assert.True(t, today.Equal(DateOf(time.Date(2025, 6, 15, 18, 0, 0, 0, time.UTC))))

	v, err := today.Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-06-15", v)
}
