package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// pngHeader 最小 PNG 簽名（非完整圖片，僅供簽名匹配）
var pngHeader = []byte("\x89PNG\r\n\x1a\n")

func TestGuessMIMEFromHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/a.png", want: "image/png"},
		{url: "https://example.com/a.JPG", want: "image/jpeg"},
		{url: "https://example.com/a.jpeg?size=large", want: "image/jpeg"},
		{url: "https://example.com/a.webp", want: "image/webp"},
		{url: "https://example.com/a.svg", want: "image/svg+xml"},
		{url: "https://example.com/a.txt", want: ""},
		{url: "https://example.com/no-extension", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GuessMIMEFromHTTPURL(tt.url), tt.url)
	}
}

func TestExtractMIMEFromDataURL(t *testing.T) {
	assert.Equal(t, "image/gif", ExtractMIMEFromDataURL("data:image/gif;base64,AAAA", "image/png"))
	// 頭部缺失 MIME 時回退默認值
	assert.Equal(t, "image/png", ExtractMIMEFromDataURL("data:;base64,AAAA", "Image/PNG"))
	// 格式錯誤時同樣回退，不傳播錯誤
	assert.Equal(t, "image/png", ExtractMIMEFromDataURL("not-a-data-url", "image/png"))
	assert.Equal(t, "", ExtractMIMEFromDataURL("not-a-data-url", ""))
}

func TestSniffFileType(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		defMIME string
		defExt  string
		wantM   string
		wantE   string
	}{
		{
			name:  "png signature wins over declared default",
			data:  pngHeader,
			wantM: "image/png", wantE: "png",
			defMIME: "image/jpeg", defExt: "jpg",
		},
		{
			name:  "jpeg signature",
			data:  []byte{0xFF, 0xD8, 0xFF, 0xE0},
			wantM: "image/jpeg", wantE: "jpg",
		},
		{
			name:  "gif89a signature",
			data:  []byte("GIF89a......"),
			wantM: "image/gif", wantE: "gif",
		},
		{
			name:  "webp requires riff container",
			data:  []byte("RIFF\x00\x00\x00\x00WEBPVP8 "),
			wantM: "image/webp", wantE: "webp",
		},
		{
			name:  "webp marker without riff falls through",
			data:  []byte("XXXX\x00\x00\x00\x00WEBP"),
			wantM: "application/octet-stream", wantE: "bin",
		},
		{
			name:  "bmp signature",
			data:  []byte("BM\x00\x00"),
			wantM: "image/bmp", wantE: "bmp",
		},
		{
			name:  "tiff little endian",
			data:  []byte("II*\x00\x00\x00"),
			wantM: "image/tiff", wantE: "tiff",
		},
		{
			name:  "unknown bytes use caller default",
			data:  []byte{0x00, 0x01, 0x02, 0x03},
			wantM: "application/pdf", wantE: "pdf",
			defMIME: "Application/PDF", defExt: ".PDF",
		},
		{
			name:  "unknown bytes without default",
			data:  []byte{0x00, 0x01, 0x02, 0x03},
			wantM: DefaultMIME, wantE: DefaultExtension,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, ext := SniffFileType(tt.data, tt.defMIME, tt.defExt)
			assert.Equal(t, tt.wantM, mime)
			assert.Equal(t, tt.wantE, ext)
		})
	}
}
