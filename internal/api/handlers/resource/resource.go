package resource

import (
	"net/http"

	coreresource "image-normalizer/internal/core/resource"
	"image-normalizer/internal/core/transport"
	"image-normalizer/internal/infrastructure/config"
	"image-normalizer/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// normalizeRequest 資源規範化請求
type normalizeRequest struct {
	Resource string `json:"resource" binding:"required"`
	MIME     string `json:"mime"`
}

// materializeRequest 資源物化請求
type materializeRequest struct {
	Resource    string `json:"resource" binding:"required"`
	MIME        string `json:"mime"`
	MaxBytes    int64  `json:"max_bytes"`
	DefaultMIME string `json:"default_mime"`
}

// compressRequest 圖片壓縮請求
type compressRequest struct {
	Resource string `json:"resource" binding:"required"`
	MIME     string `json:"mime"`
	Quality  int    `json:"quality"`
}

// buildSpec 按前綴分類構造資源引用；呼叫方指定的 MIME 覆蓋推斷值
func buildSpec(raw string, mime string) (coreresource.Spec, error) {
	spec, err := coreresource.FromRaw(raw)
	if err != nil {
		return coreresource.Spec{}, err
	}
	if mime == "" {
		return spec, nil
	}
	switch spec.Kind() {
	case coreresource.KindHTTPURL:
		return coreresource.FromHTTPURL(raw, mime)
	case coreresource.KindDataURL:
		return coreresource.FromDataURL(raw, mime)
	default:
		return coreresource.FromBase64(raw, mime)
	}
}

// HandleNormalize 規範化資源引用並返回可用的編碼形式。
// http_url 資源不做隱式下載，僅返回分類結果。
func HandleNormalize(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req normalizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		common.LogDebug("Normalize request",
			zap.String("resource_type", describeResource(req.Resource)),
			zap.String("mime", req.MIME),
		)

		spec, err := buildSpec(req.Resource, req.MIME)
		if err != nil {
			respondError(c, err)
			return
		}

		response := gin.H{
			"kind": string(spec.Kind()),
			"mime": spec.MIME(),
		}

		// http_url 以外的資源附帶編碼形式
		if spec.Kind() != coreresource.KindHTTPURL {
			encoded, err := spec.ToBase64()
			if err != nil {
				respondError(c, err)
				return
			}
			dataURL, err := spec.ToDataURL(cfg.Resource.DefaultMIME)
			if err != nil {
				respondError(c, err)
				return
			}
			response["base64"] = encoded
			response["data_url"] = dataURL
		}

		c.JSON(http.StatusOK, response)
	}
}

// HandleMaterialize 物化資源為位元組內容並返回嗅探結果
func HandleMaterialize(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req materializeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		common.LogDebug("Materialize request",
			zap.String("resource_type", describeResource(req.Resource)),
			zap.Int64("max_bytes", req.MaxBytes),
		)

		spec, err := buildSpec(req.Resource, req.MIME)
		if err != nil {
			respondError(c, err)
			return
		}

		opts := convertOptions(cfg)
		if req.MaxBytes > 0 {
			opts.MaxBytes = req.MaxBytes
		}
		if req.DefaultMIME != "" {
			opts.DefaultMIME = req.DefaultMIME
		}

		blob, err := spec.ConvertToResourceBlob(c.Request.Context(), opts)
		if err != nil {
			respondError(c, err)
			return
		}

		dataURL, err := blob.ToDataURL()
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"mime":      blob.MIME(),
			"extension": blob.Extension(),
			"size":      blob.Size(),
			"data_url":  dataURL,
		})
	}
}

// HandleCompress 物化圖片資源並重新編碼為 JPEG
func HandleCompress(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req compressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindingError(c, err)
			return
		}

		quality := req.Quality
		if quality == 0 {
			quality = cfg.Compress.JPEGQuality
		}

		common.LogDebug("Compress request",
			zap.String("resource_type", describeResource(req.Resource)),
			zap.Int("quality", quality),
		)

		spec, err := buildSpec(req.Resource, req.MIME)
		if err != nil {
			respondError(c, err)
			return
		}

		imageBlob, err := spec.ConvertToImageBlob(c.Request.Context(), convertOptions(cfg))
		if err != nil {
			respondError(c, err)
			return
		}

		compressed, err := imageBlob.CompressToJPG(quality)
		if err != nil {
			respondError(c, err)
			return
		}

		dataURL, err := compressed.ToDataURL()
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"mime":          compressed.MIME(),
			"extension":     compressed.Extension(),
			"size":          compressed.Size(),
			"original_size": imageBlob.Size(),
			"data_url":      dataURL,
		})
	}
}

// convertOptions 從設定構造物化選項
func convertOptions(cfg *config.Config) coreresource.ConvertOptions {
	return coreresource.ConvertOptions{
		MaxBytes:         cfg.Resource.MaxSizeBytes,
		DefaultMIME:      cfg.Resource.DefaultMIME,
		DefaultExtension: cfg.Resource.DefaultExtension,
		Timeout:          cfg.HTTP.Timeout,
		Fetcher:          transport.NewClientWithUserAgent("Resource", cfg.HTTP.UserAgent),
	}
}
