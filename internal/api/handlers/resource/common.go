package resource

import (
	"net/http"
	"strings"

	"image-normalizer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// describeResource 描述資源形式（用於日誌記錄，不輸出內容）
func describeResource(value string) string {
	switch {
	case value == "":
		return "empty"
	case strings.HasPrefix(value, "http://"), strings.HasPrefix(value, "https://"):
		return "http_url"
	case strings.HasPrefix(value, "data:"):
		return "data_url"
	default:
		return "base64"
	}
}

// respondError 將錯誤轉換為統一的 JSON 錯誤響應
func respondError(c *gin.Context, err error) {
	resErr, ok := common.AsResourceError(err)
	if !ok {
		common.LogError("Unexpected handler error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":      "INTERNAL_ERROR",
				"message":   "internal server error",
				"retryable": false,
			},
		})
		return
	}

	status := common.HTTPStatusForError(resErr)
	if status >= http.StatusInternalServerError {
		common.LogError("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", resErr.Code),
			zap.Error(resErr),
		)
	} else {
		common.LogWarn("Request rejected",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", resErr.Code),
			zap.String("message", resErr.Message),
		)
	}

	payload := gin.H{
		"code":      resErr.Code,
		"message":   resErr.Message,
		"retryable": resErr.Retryable,
	}
	if len(resErr.Detail) > 0 {
		payload["detail"] = resErr.Detail
	}
	c.JSON(status, gin.H{"error": payload})
}

// respondBindingError 處理請求體解析失敗
func respondBindingError(c *gin.Context, err error) {
	common.LogWarn("Invalid request body",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusBadRequest, gin.H{
		"error": gin.H{
			"code":      common.ErrCodeInvalidArgument,
			"message":   "invalid request body: " + err.Error(),
			"retryable": false,
		},
	})
}
