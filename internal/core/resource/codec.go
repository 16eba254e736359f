package resource

import (
	"encoding/base64"
	"net/url"
	"strings"

	"image-normalizer/internal/pkg/common"
)

const base64URIPrefix = "base64://"

// NormalizeText 規範化通用文本：去除首尾空白
func NormalizeText(value string) string {
	return strings.TrimSpace(value)
}

// NormalizeMIME 規範化 MIME：去除首尾空白並轉小寫
func NormalizeMIME(value string) string {
	return strings.ToLower(NormalizeText(value))
}

// compactWhitespace 移除字符串中的所有空白字符
func compactWhitespace(value string) string {
	return strings.Join(strings.Fields(value), "")
}

// NormalizeBase64Payload 規範化 base64 負載：移除 base64:// 前綴與所有空白。
// 只做結構規範化，不校驗字母表；解碼校驗延後到 DecodeBase64Payload。
func NormalizeBase64Payload(value string) (string, error) {
	normalized := NormalizeText(value)
	normalized = strings.TrimPrefix(normalized, base64URIPrefix)
	normalized = compactWhitespace(normalized)
	if normalized == "" {
		return "", common.NewResourceError(common.ErrCodeInvalidFormat, "base64 payload is empty", false, nil)
	}
	return normalized, nil
}

// DecodeBase64Payload 嚴格解碼 base64 負載（要求正確填充、無非法字符）
func DecodeBase64Payload(value string) ([]byte, error) {
	normalized, err := NormalizeBase64Payload(value)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.Strict().DecodeString(normalized)
	if err != nil {
		return nil, common.WrapResourceError(common.ErrCodeInvalidFormat, "base64 payload is invalid", false, nil, err)
	}
	return data, nil
}

// EncodeBase64Payload 將位元組編碼為標準 base64 字符串
func EncodeBase64Payload(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DataURLHeader data URL 頭部解析結果
type DataURLHeader struct {
	MIME     string // 第一段聲明的 MIME；缺失時為空
	IsBase64 bool   // 是否帶 base64 標記
	Payload  string // 逗號之後的原始負載
}

// ParseDataURLHeader 解析 data URL 頭部。
// 格式：data:[meta],[payload]，meta 形如 image/png;charset=utf-8;base64。
func ParseDataURLHeader(dataURL string) (DataURLHeader, error) {
	normalized := NormalizeText(dataURL)
	if !strings.HasPrefix(normalized, "data:") {
		return DataURLHeader{}, common.NewResourceError(common.ErrCodeInvalidFormat, "data_url must start with 'data:'", false, nil)
	}

	meta, payload, found := strings.Cut(strings.TrimPrefix(normalized, "data:"), ",")
	if !found {
		return DataURLHeader{}, common.NewResourceError(common.ErrCodeInvalidFormat, "data_url is invalid", false, nil)
	}

	// 將 meta 按分號拆分為片段，去除首尾空白並過濾空片段
	tokens := make([]string, 0, 4)
	for _, segment := range strings.Split(meta, ";") {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}

	isBase64 := false
	for _, token := range tokens {
		if strings.EqualFold(token, "base64") {
			isBase64 = true
			break
		}
	}

	// 約定 MIME 在第一段，例如 image/png；若缺失則返回空字符串。
	// charset 等參數會進入 token 列表但不影響解碼。
	mime := ""
	if len(tokens) > 0 {
		first := tokens[0]
		if strings.Contains(first, "/") && !strings.Contains(first, "=") && !strings.EqualFold(first, "base64") {
			mime = NormalizeMIME(first)
		}
	}

	return DataURLHeader{MIME: mime, IsBase64: isBase64, Payload: payload}, nil
}

// DataURLToBytes 解碼 data URL 負載為位元組並返回聲明的 MIME。
// 非 base64 負載按百分號編碼解碼，支援 text/plain 等純文本 data URL。
func DataURLToBytes(dataURL string) ([]byte, string, error) {
	header, err := ParseDataURLHeader(dataURL)
	if err != nil {
		return nil, "", err
	}
	if header.IsBase64 {
		data, err := DecodeBase64Payload(header.Payload)
		if err != nil {
			return nil, "", err
		}
		return data, header.MIME, nil
	}
	decoded, err := url.PathUnescape(header.Payload)
	if err != nil {
		return nil, "", common.WrapResourceError(common.ErrCodeInvalidFormat, "data_url payload has invalid percent-encoding", false, nil, err)
	}
	return []byte(decoded), header.MIME, nil
}

// DataURLToBase64 將 data URL 負載轉換為規範化 base64 字符串
func DataURLToBase64(dataURL string) (string, error) {
	header, err := ParseDataURLHeader(dataURL)
	if err != nil {
		return "", err
	}
	if header.IsBase64 {
		return NormalizeBase64Payload(header.Payload)
	}
	// 非 base64 編碼，需重新解碼和編碼
	data, _, err := DataURLToBytes(dataURL)
	if err != nil {
		return "", err
	}
	return EncodeBase64Payload(data), nil
}

// BuildDataURL 根據 MIME 與 base64 負載組裝 data URL
func BuildDataURL(mime string, base64Payload string) (string, error) {
	normalizedMIME := NormalizeMIME(mime)
	if normalizedMIME == "" {
		return "", common.NewResourceError(common.ErrCodeInvalidArgument, "mime is required to build data URL", false, nil)
	}
	return "data:" + normalizedMIME + ";base64," + base64Payload, nil
}
