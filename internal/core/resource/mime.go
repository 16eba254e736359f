package resource

import (
	"net/url"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// DefaultMIME 無法識別內容時的兜底 MIME
	DefaultMIME = "application/octet-stream"
	// DefaultExtension 無法識別內容時的兜底擴展名（不帶點）
	DefaultExtension = "bin"
)

// 擴展名到 MIME 的靜態映射
var suffixToMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
}

// magicSignature 魔數簽名條目
type magicSignature struct {
	prefix    []byte
	offset    int // prefix 在內容中的起始位置
	mime      string
	extension string
}

// 常見圖片格式魔數，按序嘗試，先命中者勝
var magicSignatures = []magicSignature{
	{prefix: []byte("\x89PNG\r\n\x1a\n"), mime: "image/png", extension: "png"},
	{prefix: []byte{0xFF, 0xD8, 0xFF}, mime: "image/jpeg", extension: "jpg"},
	{prefix: []byte("GIF87a"), mime: "image/gif", extension: "gif"},
	{prefix: []byte("GIF89a"), mime: "image/gif", extension: "gif"},
	{prefix: []byte("WEBP"), offset: 8, mime: "image/webp", extension: "webp"},
	{prefix: []byte("BM"), mime: "image/bmp", extension: "bmp"},
	{prefix: []byte("II*\x00"), mime: "image/tiff", extension: "tiff"}, // 小端 TIFF
	{prefix: []byte("MM\x00*"), mime: "image/tiff", extension: "tiff"}, // 大端 TIFF
}

func (s magicSignature) matches(data []byte) bool {
	end := s.offset + len(s.prefix)
	if len(data) < end {
		return false
	}
	if s.offset > 0 {
		// 帶偏移的簽名（RIFF....WEBP）仍要求容器頭存在
		if !strings.HasPrefix(string(data), "RIFF") {
			return false
		}
	}
	return string(data[s.offset:end]) == string(s.prefix)
}

// GuessMIMEFromHTTPURL 根據 HTTP URL 的路徑擴展名推斷 MIME；未知擴展名返回空
func GuessMIMEFromHTTPURL(rawURL string) string {
	parsed, err := url.Parse(NormalizeText(rawURL))
	if err != nil {
		return ""
	}
	suffix := strings.ToLower(path.Ext(parsed.Path))
	return suffixToMIME[suffix]
}

// ExtractMIMEFromDataURL 從 data URL 頭部提取 MIME。
// 盡力而為：頭部格式錯誤時返回規範化後的 defaultMIME，不向上傳播錯誤。
func ExtractMIMEFromDataURL(dataURL string, defaultMIME string) string {
	normalizedDefault := NormalizeMIME(defaultMIME)
	header, err := ParseDataURLHeader(dataURL)
	if err != nil {
		return normalizedDefault
	}
	if header.MIME == "" {
		return normalizedDefault
	}
	return header.MIME
}

// SniffFileType 根據內容嗅探 MIME 與擴展名。
//
// 依序嘗試：魔數簽名、mimetype 通用嗅探、調用方兜底值。
// 簽名命中時始終覆蓋調用方聲明的默認值，默認值嚴格作為最後手段。
func SniffFileType(data []byte, defaultMIME string, defaultExtension string) (string, string) {
	fallbackMIME := NormalizeMIME(defaultMIME)
	if fallbackMIME == "" {
		fallbackMIME = DefaultMIME
	}
	fallbackExtension := strings.TrimPrefix(strings.ToLower(NormalizeText(defaultExtension)), ".")
	if fallbackExtension == "" {
		fallbackExtension = DefaultExtension
	}

	for _, signature := range magicSignatures {
		if signature.matches(data) {
			return signature.mime, signature.extension
		}
	}

	// mimetype 對未知內容返回 application/octet-stream，視為未命中
	if detected := mimetype.Detect(data); !detected.Is(DefaultMIME) {
		extension := strings.TrimPrefix(detected.Extension(), ".")
		if extension == "" {
			extension = fallbackExtension
		}
		// 丟棄 "; charset=..." 等參數，只保留類型本身
		detectedMIME, _, _ := strings.Cut(detected.String(), ";")
		return NormalizeMIME(detectedMIME), extension
	}

	return fallbackMIME, fallbackExtension
}
