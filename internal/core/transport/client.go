package transport

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"image-normalizer/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultUserAgent = "image-normalizer/1.0"
	// 錯誤詳情中響應片段的最大長度
	responseExcerptLimit = 400
	redactedPlaceholder  = "<redacted>"
)

// 需要遮罩的請求/響應頭（小寫）
var maskedHeaderNames = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
}

// Response HTTP 響應封裝
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	ElapsedMS  int64
}

// Client HTTP 傳輸客戶端。
// 每次請求建立並關閉自己的連線，不保證跨請求連線複用。
type Client struct {
	source    string // 錯誤信息中的上游標識
	userAgent string
}

// NewClient 創建傳輸客戶端
func NewClient(source string) *Client {
	return NewClientWithUserAgent(source, "")
}

// NewClientWithUserAgent 創建指定 User-Agent 的傳輸客戶端
func NewClientWithUserAgent(source string, userAgent string) *Client {
	if source == "" {
		source = "Upstream"
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		source:    source,
		userAgent: userAgent,
	}
}

// maskHeaders 遮罩敏感頭後返回可安全記錄的副本
func maskHeaders(headers map[string]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for key, value := range headers {
		if maskedHeaderNames[strings.ToLower(key)] {
			masked[key] = redactedPlaceholder
			continue
		}
		masked[key] = value
	}
	return masked
}

// maskHTTPHeaders 遮罩 http.Header 形式的響應頭
func maskHTTPHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		if maskedHeaderNames[strings.ToLower(key)] {
			masked[key] = redactedPlaceholder
			continue
		}
		masked[key] = strings.Join(values, ", ")
	}
	return masked
}

// Request 發送單次 HTTP 請求。
//
// timeout 為覆蓋連線、傳輸與響應讀取的總超時。結果約定：
//   - 狀態碼 < 400：返回響應
//   - 狀態碼 >= 400：UPSTREAM_ERROR，5xx 與 429 可重試
//   - 超時：TIMEOUT，可重試
//   - 連線失敗：NETWORK_ERROR，可重試
func (c *Client) Request(ctx context.Context, method string, url string, headers map[string]string, body []byte, timeout time.Duration) (*Response, error) {
	if timeout <= 0 {
		return nil, common.NewResourceError(common.ErrCodeInvalidArgument, "timeout must be > 0", false, map[string]interface{}{
			"source":  c.source,
			"url":     url,
			"timeout": timeout.String(),
		})
	}

	requestDetail := map[string]interface{}{
		"source":  c.source,
		"method":  method,
		"url":     url,
		"timeout": timeout.String(),
		"headers": maskHeaders(headers),
	}

	// 每次請求使用獨立客戶端並關閉連線，避免跨調用的連線複用假設
	client := resty.New().
		SetTimeout(timeout).
		SetCloseConnection(true).
		SetHeader("User-Agent", c.userAgent)

	req := client.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, url)
	elapsed := time.Since(start)

	if err != nil {
		if isTimeoutError(err) {
			common.LogWarn("上游請求超時",
				zap.String("source", c.source),
				zap.String("url", url),
				zap.Duration("timeout", timeout),
			)
			return nil, common.WrapResourceError(common.ErrCodeTimeout, c.source+" request timed out", true, requestDetail, err)
		}
		common.LogWarn("上游請求失敗",
			zap.String("source", c.source),
			zap.String("url", url),
			zap.Error(err),
		)
		detail := make(map[string]interface{}, len(requestDetail)+1)
		for key, value := range requestDetail {
			detail[key] = value
		}
		detail["client_error"] = err.Error()
		return nil, common.WrapResourceError(common.ErrCodeNetworkError, c.source+" request failed", true, detail, err)
	}

	status := resp.StatusCode()
	if status >= http.StatusBadRequest {
		excerpt := common.TruncateString(resp.String(), responseExcerptLimit)
		detail := make(map[string]interface{}, len(requestDetail)+3)
		for key, value := range requestDetail {
			detail[key] = value
		}
		detail["status_code"] = status
		detail["response_excerpt"] = excerpt
		detail["response_headers"] = maskHTTPHeaders(resp.Header())
		common.LogWarn("上游返回錯誤狀態",
			zap.String("source", c.source),
			zap.String("url", url),
			zap.Int("status_code", status),
		)
		retryable := status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
		return nil, common.NewResourceError(common.ErrCodeUpstreamError, c.source+" HTTP "+resp.Status()+": "+excerpt, retryable, detail)
	}

	common.LogDebug("上游請求完成",
		zap.String("source", c.source),
		zap.String("method", method),
		zap.String("url", url),
		zap.Int("status_code", status),
		zap.Duration("elapsed", elapsed),
	)

	return &Response{
		StatusCode: status,
		Headers:    resp.Header(),
		Body:       resp.Body(),
		ElapsedMS:  elapsed.Milliseconds(),
	}, nil
}

// isTimeoutError 判斷傳輸錯誤是否為超時
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// GetBytes 下載 URL 內容，返回位元組與依響應 Content-Type 推斷的 MIME
func (c *Client) GetBytes(ctx context.Context, url string, headers map[string]string, timeout time.Duration) ([]byte, string, error) {
	resp, err := c.Request(ctx, http.MethodGet, url, headers, nil, timeout)
	if err != nil {
		return nil, "", err
	}
	contentType := resp.Headers.Get("Content-Type")
	mime, _, _ := strings.Cut(contentType, ";")
	return resp.Body, strings.ToLower(strings.TrimSpace(mime)), nil
}

// PostJSONResult POST JSON 請求的成功結果
type PostJSONResult struct {
	Data      map[string]interface{}
	ElapsedMS int64
}

// PostJSON 發送 JSON POST 請求並要求響應為 JSON object。
// 響應解析失敗或頂層不是 object 時按 UPSTREAM_ERROR 處理且可重試，重試決策交給外層。
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}, headers map[string]string, timeout time.Duration) (*PostJSONResult, error) {
	encoded, err := common.ToJSON(payload)
	if err != nil {
		return nil, common.WrapResourceError(common.ErrCodeInvalidArgument, "payload is not JSON-encodable", false, map[string]interface{}{
			"source": c.source,
			"url":    url,
		}, err)
	}

	merged := make(map[string]string, len(headers)+1)
	for key, value := range headers {
		merged[key] = value
	}
	merged["Content-Type"] = "application/json"

	resp, err := c.Request(ctx, http.MethodPost, url, merged, []byte(encoded), timeout)
	if err != nil {
		return nil, err
	}

	detail := map[string]interface{}{
		"source":           c.source,
		"url":              url,
		"headers":          maskHeaders(merged),
		"response_excerpt": common.TruncateString(string(resp.Body), responseExcerptLimit),
	}

	var data map[string]interface{}
	if err := common.ParseJSONBytes(resp.Body, &data); err != nil {
		return nil, common.WrapResourceError(common.ErrCodeUpstreamError, c.source+" returned invalid JSON", true, detail, err)
	}
	if data == nil {
		return nil, common.NewResourceError(common.ErrCodeUpstreamError, c.source+" response must be a JSON object", true, detail)
	}

	return &PostJSONResult{Data: data, ElapsedMS: resp.ElapsedMS}, nil
}
