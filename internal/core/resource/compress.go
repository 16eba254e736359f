package resource

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"image-normalizer/internal/pkg/common"

	_ "image/gif" // 註冊 GIF 解碼器
	_ "image/png" // 註冊 PNG 解碼器

	_ "golang.org/x/image/bmp"  // 註冊 BMP 解碼器
	_ "golang.org/x/image/tiff" // 註冊 TIFF 解碼器
	_ "golang.org/x/image/webp" // 註冊 WebP 解碼器
)

const (
	minJPEGQuality = 1
	maxJPEGQuality = 95
)

// CompressToJPG 將圖片重新編碼為 JPEG，返回新對象，原對象不變。
//
// quality 取值範圍 [1, 95]，越界直接報錯而非截斷。
// 帶透明通道的圖片先合成到白色背景再編碼。
func (b *ImageBlob) CompressToJPG(quality int) (*ImageBlob, error) {
	if quality < minJPEGQuality || quality > maxJPEGQuality {
		return nil, common.NewResourceError(common.ErrCodeInvalidArgument, "quality must be in [1, 95]", false, map[string]interface{}{
			"quality": quality,
		})
	}

	decoded, format, err := image.Decode(bytes.NewReader(b.data))
	if err != nil {
		return nil, common.WrapResourceError(common.ErrCodeInvalidImage, "failed to decode image", false, map[string]interface{}{
			"mime": b.mime,
			"size": len(b.data),
		}, err)
	}

	flattened := flattenToRGB(decoded)

	var output bytes.Buffer
	if err := jpeg.Encode(&output, flattened, &jpeg.Options{Quality: quality}); err != nil {
		return nil, common.WrapResourceError(common.ErrCodeInvalidImage, "failed to encode image as JPEG", false, map[string]interface{}{
			"format": format,
		}, err)
	}

	return NewImageBlob(output.Bytes(), "image/jpeg", "jpg")
}

// flattenToRGB 去除透明通道。
// 不透明圖片直接轉為 RGBA；帶透明的圖片先鋪白底再疊加。
func flattenToRGB(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if isOpaque(src) {
		draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
		return dst
	}

	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// isOpaque 判斷圖片是否完全不透明
func isOpaque(src image.Image) bool {
	if checker, ok := src.(interface{ Opaque() bool }); ok {
		return checker.Opaque()
	}
	return false
}
