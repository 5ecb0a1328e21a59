package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "250", want: 250 * time.Millisecond},
		{in: " 3s ", want: 3 * time.Second},
		{in: "1m30s", want: 90 * time.Second},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ErrInvalidDuration, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDuration_JSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"2s","b":1500}`), &v))
	assert.Equal(t, 2*time.Second, v.A.Duration)
	assert.Equal(t, 1500*time.Millisecond, v.B.Duration)

	out, err := json.Marshal(v.A)
	require.NoError(t, err)
	assert.JSONEq(t, `"2s"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestDuration_YAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 500ms\nb: 100\n"), &v))
	assert.Equal(t, 500*time.Millisecond, v.A.Duration)
	assert.Equal(t, 100*time.Millisecond, v.B.Duration)

	require.Error(t, yaml.Unmarshal([]byte("a: [1, 2]\n"), &v))
}
