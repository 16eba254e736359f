package resource

import (
	"context"
	"strings"
	"time"

	"image-normalizer/internal/core/transport"
	"image-normalizer/internal/pkg/common"
)

// Kind 資源引用的三種線上形式
type Kind string

const (
	KindHTTPURL Kind = "http_url"
	KindDataURL Kind = "data_url"
	KindBase64  Kind = "base64"
)

// Fetcher 遠端位元組加載接口，由 transport.Client 實現；測試可注入替身
type Fetcher interface {
	GetBytes(ctx context.Context, url string, headers map[string]string, timeout time.Duration) ([]byte, string, error)
}

// defaultFetcher 默認的遠端加載器
var defaultFetcher Fetcher = transport.NewClient("Resource")

// Spec 不可變的資源引用值。
//
// 構造時只做廉價的結構校驗與規範化；data URL 的深度語法校驗和
// base64 字母表校驗延後到物化階段，避免重複解析。
type Spec struct {
	kind Kind
	raw  string
	mime string
}

// Kind 返回資源類型
func (s Spec) Kind() Kind { return s.kind }

// Raw 返回規範化後的原始值
func (s Spec) Raw() string { return s.raw }

// MIME 返回已知的 MIME；可能為空（base64 資源延後到物化時嗅探）
func (s Spec) MIME() string { return s.mime }

// FromHTTPURL 從 http(s) URL 構造資源引用
func FromHTTPURL(raw string, mime string) (Spec, error) {
	normalized := NormalizeText(raw)
	if normalized == "" {
		return Spec{}, common.NewResourceError(common.ErrCodeInvalidFormat, "raw resource value must not be empty", false, nil)
	}
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		return Spec{}, common.NewResourceError(common.ErrCodeInvalidFormat, "http_url resource must be a valid http(s) URL", false, nil)
	}
	normalizedMIME := NormalizeMIME(mime)
	if normalizedMIME == "" {
		normalizedMIME = GuessMIMEFromHTTPURL(normalized)
	}
	return Spec{kind: KindHTTPURL, raw: normalized, mime: normalizedMIME}, nil
}

// FromDataURL 從 data URL 構造資源引用。
// 只校驗前綴；完整語法校驗延後到物化。
func FromDataURL(raw string, mime string) (Spec, error) {
	normalized := NormalizeText(raw)
	if normalized == "" {
		return Spec{}, common.NewResourceError(common.ErrCodeInvalidFormat, "raw resource value must not be empty", false, nil)
	}
	if !strings.HasPrefix(normalized, "data:") {
		return Spec{}, common.NewResourceError(common.ErrCodeInvalidFormat, "data_url resource must start with 'data:'", false, nil)
	}
	normalizedMIME := NormalizeMIME(mime)
	if normalizedMIME == "" {
		normalizedMIME = ExtractMIMEFromDataURL(normalized, "")
	}
	return Spec{kind: KindDataURL, raw: normalized, mime: normalizedMIME}, nil
}

// FromBase64 從 base64 負載（可帶 base64:// 前綴）構造資源引用。
// 移除前綴與空白但不做解碼校驗；MIME 推斷延後到物化時的內容嗅探。
func FromBase64(raw string, mime string) (Spec, error) {
	normalized, err := NormalizeBase64Payload(raw)
	if err != nil {
		return Spec{}, err
	}
	return Spec{kind: KindBase64, raw: normalized, mime: NormalizeMIME(mime)}, nil
}

// FromRaw 按前綴分類原始字符串並委派給對應構造函數
func FromRaw(raw string) (Spec, error) {
	normalized := NormalizeText(raw)
	switch {
	case strings.HasPrefix(normalized, "http://"), strings.HasPrefix(normalized, "https://"):
		return FromHTTPURL(normalized, "")
	case strings.HasPrefix(normalized, "data:"):
		return FromDataURL(normalized, "")
	default:
		return FromBase64(normalized, "")
	}
}

// ToBase64 返回資源的 base64 表示。
// http_url 資源不支援：純訪問器不做隱式網路 I/O。
func (s Spec) ToBase64() (string, error) {
	switch s.kind {
	case KindHTTPURL:
		return "", common.NewResourceError(common.ErrCodeInvalidOperation, "http_url resource cannot be encoded without fetching; materialize it first", false, map[string]interface{}{
			"kind": string(s.kind),
		})
	case KindDataURL:
		return DataURLToBase64(s.raw)
	case KindBase64:
		return s.raw, nil
	default:
		return "", common.NewResourceError(common.ErrCodeInvalidFormat, "unsupported resource kind: "+string(s.kind), false, nil)
	}
}

// ToDataURL 返回資源的 data URL 表示。
// base64 資源使用自身 MIME，缺失時回退 defaultMIME。
func (s Spec) ToDataURL(defaultMIME string) (string, error) {
	switch s.kind {
	case KindHTTPURL:
		return "", common.NewResourceError(common.ErrCodeInvalidOperation, "http_url resource cannot be encoded without fetching; materialize it first", false, map[string]interface{}{
			"kind": string(s.kind),
		})
	case KindDataURL:
		return s.raw, nil
	case KindBase64:
		mime := s.mime
		if mime == "" {
			mime = NormalizeMIME(defaultMIME)
		}
		return BuildDataURL(mime, s.raw)
	default:
		return "", common.NewResourceError(common.ErrCodeInvalidFormat, "unsupported resource kind: "+string(s.kind), false, nil)
	}
}

// ConvertOptions 物化選項
type ConvertOptions struct {
	MaxBytes         int64         // 物化後大小上限；0 表示不限制
	DefaultMIME      string        // 嗅探兜底 MIME；空值時使用 application/octet-stream
	DefaultExtension string        // 嗅探兜底擴展名；空值時使用 bin
	Timeout          time.Duration // 遠端下載總超時；0 表示默認 60s
	Fetcher          Fetcher       // 遠端加載器；nil 時使用默認 transport 客戶端
	Headers          map[string]string
}

func (o ConvertOptions) fetcher() Fetcher {
	if o.Fetcher != nil {
		return o.Fetcher
	}
	return defaultFetcher
}

func (o ConvertOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 60 * time.Second
}

// ConvertToResourceBlob 物化資源為位元組內容。
// 僅 http_url 會發起網路請求；大小檢查在完整取得位元組之後執行。
func (s Spec) ConvertToResourceBlob(ctx context.Context, opts ConvertOptions) (*Blob, error) {
	var (
		data         []byte
		declaredMIME string
	)

	switch s.kind {
	case KindHTTPURL:
		fetched, loadedMIME, err := opts.fetcher().GetBytes(ctx, s.raw, opts.Headers, opts.timeout())
		if err != nil {
			return nil, err
		}
		data = fetched
		declaredMIME = loadedMIME
		if declaredMIME == "" {
			declaredMIME = s.mime
		}
	case KindDataURL:
		decoded, parsedMIME, err := DataURLToBytes(s.raw)
		if err != nil {
			return nil, err
		}
		data = decoded
		declaredMIME = parsedMIME
		if declaredMIME == "" {
			declaredMIME = s.mime
		}
	case KindBase64:
		decoded, err := DecodeBase64Payload(s.raw)
		if err != nil {
			return nil, err
		}
		data = decoded
		declaredMIME = s.mime
	default:
		return nil, common.NewResourceError(common.ErrCodeInvalidFormat, "unsupported resource kind: "+string(s.kind), false, nil)
	}

	if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
		return nil, common.NewResourceError(common.ErrCodeResourceTooLarge, "resource data exceeds max_bytes", false, map[string]interface{}{
			"size":      len(data),
			"max_bytes": opts.MaxBytes,
		})
	}

	if declaredMIME == "" {
		declaredMIME = NormalizeMIME(opts.DefaultMIME)
	}
	return NewBlob(data, declaredMIME, opts.DefaultExtension), nil
}

// ConvertToImageBlob 物化資源並要求內容為圖片
func (s Spec) ConvertToImageBlob(ctx context.Context, opts ConvertOptions) (*ImageBlob, error) {
	blob, err := s.ConvertToResourceBlob(ctx, opts)
	if err != nil {
		return nil, err
	}
	return blob.ToImageBlob()
}
