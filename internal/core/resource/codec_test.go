package resource

import (
	"testing"

	"image-normalizer/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMIME(t *testing.T) {
	assert.Equal(t, "image/png", NormalizeMIME("  IMAGE/PNG "))
	assert.Equal(t, "", NormalizeMIME("   "))
}

func TestNormalizeBase64Payload(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain payload", input: "Zm9v", want: "Zm9v"},
		{name: "strips uri prefix", input: "base64://Zm9v", want: "Zm9v"},
		{name: "strips prefix and whitespace", input: "  base64:// Zm9vIA==  ", want: "Zm9vIA=="},
		{name: "strips embedded newlines", input: "Zm9v\nYmFy", want: "Zm9vYmFy"},
		{name: "empty after normalization", input: "base64://   ", wantErr: true},
		{name: "empty input", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeBase64Payload(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				resErr, ok := common.AsResourceError(err)
				require.True(t, ok)
				assert.Equal(t, common.ErrCodeInvalidFormat, resErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBase64Payload(t *testing.T) {
	data, err := DecodeBase64Payload("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// 忽略前綴與空白後仍可解碼
	data, err = DecodeBase64Payload("base64://aGVs bG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// 非法字符
	_, err = DecodeBase64Payload("aGVsbG8!")
	require.Error(t, err)
	resErr, ok := common.AsResourceError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCodeInvalidFormat, resErr.Code)
	assert.False(t, resErr.Retryable)

	// 缺少填充
	_, err = DecodeBase64Payload("aGVsbG8")
	assert.Error(t, err)
}

func TestParseDataURLHeader(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantMIME     string
		wantIsBase64 bool
		wantPayload  string
		wantErr      bool
	}{
		{
			name:         "base64 image",
			input:        "data:image/png;base64,AAAA",
			wantMIME:     "image/png",
			wantIsBase64: true,
			wantPayload:  "AAAA",
		},
		{
			name:        "plain text without base64 marker",
			input:       "data:text/plain,hello",
			wantMIME:    "text/plain",
			wantPayload: "hello",
		},
		{
			name:         "no mime",
			input:        "data:;base64,AAAA",
			wantMIME:     "",
			wantIsBase64: true,
			wantPayload:  "AAAA",
		},
		{
			name:         "charset parameter ignored",
			input:        "data:text/plain;charset=utf-8;base64,aGk=",
			wantMIME:     "text/plain",
			wantIsBase64: true,
			wantPayload:  "aGk=",
		},
		{
			name:         "uppercase base64 marker",
			input:        "data:image/png;BASE64,AAAA",
			wantMIME:     "image/png",
			wantIsBase64: true,
			wantPayload:  "AAAA",
		},
		{name: "missing comma", input: "data:image/png;base64AAAA", wantErr: true},
		{name: "wrong scheme", input: "http://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header, err := ParseDataURLHeader(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, header.MIME)
			assert.Equal(t, tt.wantIsBase64, header.IsBase64)
			assert.Equal(t, tt.wantPayload, header.Payload)
		})
	}
}

func TestDataURLToBytes(t *testing.T) {
	// base64 負載
	data, mime, err := DataURLToBytes("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/png", mime)

	// 百分號編碼的純文本負載
	data, mime, err = DataURLToBytes("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), data)
	assert.Equal(t, "text/plain", mime)

	// base64 負載非法
	_, _, err = DataURLToBytes("data:image/png;base64,!!!!")
	assert.Error(t, err)
}

func TestDataURLToBase64(t *testing.T) {
	// base64 負載直接返回規範化結果
	encoded, err := DataURLToBase64("data:image/png;base64, aGVs bG8= ")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", encoded)

	// 純文本負載先解碼再重新編碼
	encoded, err = DataURLToBase64("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8gd29ybGQ=", encoded)
}

func TestBuildDataURL(t *testing.T) {
	dataURL, err := BuildDataURL("Image/PNG", "AAAA")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,AAAA", dataURL)

	_, err = BuildDataURL("  ", "AAAA")
	require.Error(t, err)
	resErr, ok := common.AsResourceError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCodeInvalidArgument, resErr.Code)
}
