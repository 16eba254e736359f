package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// 預定義錯誤代碼
const (
	// 輸入類錯誤（不可重試）
	ErrCodeInvalidFormat    = "INVALID_FORMAT"     // 資源格式錯誤（data URL / base64）
	ErrCodeInvalidImage     = "INVALID_IMAGE"      // 內容不是圖片
	ErrCodeInvalidArgument  = "INVALID_ARGUMENT"   // 參數超出範圍
	ErrCodeInvalidOperation = "INVALID_OPERATION"  // 當前資源類型不支援此操作
	ErrCodeResourceTooLarge = "RESOURCE_TOO_LARGE" // 資源大小超出限制

	// 傳輸類錯誤（可重試性依情況）
	ErrCodeNetworkError  = "NETWORK_ERROR"  // 連線層失敗
	ErrCodeTimeout       = "TIMEOUT"        // 總超時到期
	ErrCodeUpstreamError = "UPSTREAM_ERROR" // 上游 HTTP >= 400 或響應格式錯誤
)

// ResourceError 資源處理統一錯誤類型
type ResourceError struct {
	Code      string                 // 錯誤代碼
	Message   string                 // 錯誤信息
	Retryable bool                   // 是否建議外層重試
	Detail    map[string]interface{} // 診斷信息（不含未遮罩的機密）
	Err       error                  // 原始錯誤
}

func (e *ResourceError) Error() string {
	base := fmt.Sprintf("[%s] %s (retryable=%v)", e.Code, e.Message, e.Retryable)
	if len(e.Detail) == 0 {
		return base
	}
	detail, err := json.Marshal(e.Detail)
	if err != nil {
		return base
	}
	return fmt.Sprintf("%s detail=%s", base, detail)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError 創建新的資源錯誤
func NewResourceError(code string, message string, retryable bool, detail map[string]interface{}) *ResourceError {
	return &ResourceError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Detail:    detail,
	}
}

// WrapResourceError 創建帶原始錯誤的資源錯誤
func WrapResourceError(code string, message string, retryable bool, detail map[string]interface{}, err error) *ResourceError {
	return &ResourceError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Detail:    detail,
		Err:       err,
	}
}

// AsResourceError 檢查並取出資源錯誤
func AsResourceError(err error) (*ResourceError, bool) {
	var resErr *ResourceError
	if errors.As(err, &resErr) {
		return resErr, true
	}
	return nil, false
}

// IsRetryable 判斷錯誤是否建議重試
func IsRetryable(err error) bool {
	if resErr, ok := AsResourceError(err); ok {
		return resErr.Retryable
	}
	return false
}

// HTTPStatusForError 將錯誤代碼映射為 HTTP 狀態碼
func HTTPStatusForError(err error) int {
	resErr, ok := AsResourceError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch resErr.Code {
	case ErrCodeInvalidFormat, ErrCodeInvalidImage, ErrCodeInvalidArgument, ErrCodeInvalidOperation:
		return http.StatusBadRequest
	case ErrCodeResourceTooLarge:
		return http.StatusRequestEntityTooLarge
	case ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeNetworkError:
		return http.StatusServiceUnavailable
	case ErrCodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
