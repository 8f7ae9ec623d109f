package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeString(t *testing.T) {

	testCases := []struct {
		raw  string
		want []string
	}{
		{"pending, STARTED ,, pending", []string{"PENDING", "STARTED"}},
		{"ALL", []string{}},
		{" all ", []string{}},
		{"pending,all", []string{}},
		{"", []string{}},
		{"  ,  ", []string{}},
		{"delivered,cancelled", []string{"CANCELLED", "DELIVERED"}},
		{"bogus", []string{"BOGUS"}},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeString(tc.raw))
		})
	}
}

func TestNormalizeList(t *testing.T) {

	testCases := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"all lower", []string{"all"}, []string{}},
		{"all wins", []string{"ALL", "pending"}, []string{}},
		{"all last", []string{"pending", "All"}, []string{}},
		{"dedup", []string{"pending", " PENDING ", "started"}, []string{"PENDING", "STARTED"}},
		{"empty tokens", []string{"", "  ", "ready_for_delivery"}, []string{"READY_FOR_DELIVERY"}},
		{"no split", []string{"pending,started"}, []string{"PENDING,STARTED"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeList(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []StatusFilter{
		FilterFromString("pending, STARTED ,, pending"),
		FilterFromString("cancelled,delivered,in_progress"),
		FilterFromList("X", "a", "b", "a"),
		FilterFromList(),
		{},
	}
	for _, f := range inputs {
		once := f.Normalize()
		assert.Equal(t, once, NormalizeList(once))
		assert.Equal(t, once, FilterFromList(once...).Normalize())
	}
}

func TestStatusFilterUnmarshal(t *testing.T) {

	testCases := []struct {
		body    string
		want    []string
		wantErr bool
	}{
		{`{"status": null}`, []string{}, false},
		{`{}`, []string{}, false},
		{`{"status": "all"}`, []string{}, false},
		{`{"status": "pending,started"}`, []string{"PENDING", "STARTED"}, false},
		{`{"status": ["delivered", "pending"]}`, []string{"DELIVERED", "PENDING"}, false},
		{`{"status": 5}`, nil, true},
		{`{"status": [1, 2]}`, nil, true},
	}

	for _, tc := range testCases {
		t.Run(tc.body, func(t *testing.T) {
			var payload struct {
				Status StatusFilter `json:"status"`
			}
			err := json.Unmarshal([]byte(tc.body), &payload)
			if tc.wantErr {
				require.Error(t, err)
				var verr *ValidationError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, payload.Status.Normalize())
		})
	}
}
