package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBytes(t *testing.T) {
	var data map[string]interface{}
	require.NoError(t, ParseJSONBytes([]byte(`{"a":1}`), &data))
	assert.Contains(t, data, "a")

	// 多餘資料視為錯誤
	data = nil
	assert.Error(t, ParseJSONBytes([]byte(`{"a":1}{"b":2}`), &data))

	// 空輸入
	data = nil
	assert.Error(t, ParseJSONBytes(nil, &data))
}

func TestDecodeJSONStrict(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var p payload
	require.NoError(t, DecodeJSONStrict(strings.NewReader(`{"name":"x"}`), &p))
	assert.Equal(t, "x", p.Name)

	assert.Error(t, DecodeJSONStrict(strings.NewReader(`{"name":"x","extra":1}`), &p))
}

func TestToJSON(t *testing.T) {
	encoded, err := ToJSON(map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"v"}`, encoded)

	_, err = ToJSON(make(chan int))
	assert.Error(t, err)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "abc...(truncated)", TruncateString("abcdef", 3))
	assert.Equal(t, "abcdef", TruncateString("abcdef", 0))
}

func TestGenerateUUID(t *testing.T) {
	first := GenerateUUID()
	second := GenerateUUID()
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
