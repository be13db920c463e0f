package types_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/euvd-report/euvd-report/types"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKeys []string
		wantText map[string]string
		wantErr  string
	}{
		{
			name:     "keeps response order",
			input:    `{"id":"EUVD-2024-1","baseScore":7.5,"description":null,"exploited":true}`,
			wantKeys: []string{"id", "baseScore", "description", "exploited"},
			wantText: map[string]string{
				"id":          "EUVD-2024-1",
				"baseScore":   "7.5",
				"description": "",
				"exploited":   "true",
				"missing":     "",
			},
		},
		{
			name:     "nested values render as JSON",
			input:    `{"enisaIdProduct": [ {"product": {"name": "Alpha"}} ]}`,
			wantKeys: []string{"enisaIdProduct"},
			wantText: map[string]string{
				"enisaIdProduct": `[{"product":{"name":"Alpha"}}]`,
			},
		},
		{
			name:     "duplicate key keeps first position and last value",
			input:    `{"a":"1","b":"2","a":"3"}`,
			wantKeys: []string{"a", "b"},
			wantText: map[string]string{"a": "3", "b": "2"},
		},
		{
			name:    "not an object",
			input:   `[1,2]`,
			wantErr: "record must be a JSON object",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseRecord(gjson.Parse(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKeys, got.Keys())
			for k, want := range tt.wantText {
				assert.Equal(t, want, got.Text(k), k)
			}
		})
	}
}

func TestRecord_SetString(t *testing.T) {
	r, err := types.ParseRecord(gjson.Parse(`{"queried_product":"old","id":"V-1"}`))
	require.NoError(t, err)

	r.SetString("queried_product", "Alpha")
	r.SetString("queried_vendor", "Vendor \"A\"")

	assert.Equal(t, []string{"queried_product", "id", "queried_vendor"}, r.Keys())
	assert.Equal(t, "Alpha", r.Text("queried_product"))
	assert.Equal(t, `Vendor "A"`, r.Text("queried_vendor"))

	v, ok := r.Get("queried_vendor")
	require.True(t, ok)
	assert.Equal(t, gjson.String, v.Type)
}

func TestRecord_JSON(t *testing.T) {
	input := `{"id":"V-1","baseScore":7.5,"refs":["a","b"],"note":null}`

	var r types.Record
	require.NoError(t, json.Unmarshal([]byte(input), &r))
	r.SetString("queried_vendor", "VendorA")

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"V-1","baseScore":7.5,"refs":["a","b"],"note":null,"queried_vendor":"VendorA"}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"text"`), &r))
}
