package resource

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"image-normalizer/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePNG 生成測試用 PNG 圖片
func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// opaquePNG 單色不透明圖片
func opaquePNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return encodePNG(t, img)
}

// transparentPNG 全透明圖片
func transparentPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	return encodePNG(t, img)
}

func TestNewBlobSniffsContent(t *testing.T) {
	data := opaquePNG(t, color.Black)
	blob := NewBlob(data, "image/jpeg", "jpg")
	// 簽名命中覆蓋聲明的默認值
	assert.Equal(t, "image/png", blob.MIME())
	assert.Equal(t, "png", blob.Extension())
	assert.Equal(t, len(data), blob.Size())
	assert.Equal(t, data, blob.Data())
}

func TestBlobToBase64AndDataURL(t *testing.T) {
	blob := NewBlob([]byte("hello"), "", "")
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), blob.ToBase64())

	dataURL, err := blob.ToDataURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:"+blob.MIME()+";base64,"))

	decoded, mime, err := DataURLToBytes(dataURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), decoded)
	assert.Equal(t, blob.MIME(), mime)
}

func TestBlobSave(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.png")

	data := opaquePNG(t, color.Black)
	blob := NewBlob(data, "", "")
	require.NoError(t, blob.Save(target))

	written, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, data, written)

	// 目錄中不殘留臨時文件
	entries, err := os.ReadDir(filepath.Join(dir, "nested"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// 覆蓋已存在文件
	require.NoError(t, blob.Save(target))
}

func TestToImageBlob(t *testing.T) {
	blob := NewBlob(opaquePNG(t, color.Black), "", "")
	imageBlob, err := blob.ToImageBlob()
	require.NoError(t, err)
	assert.Equal(t, "image/png", imageBlob.MIME())

	// 非圖片內容被拒絕
	_, err = NewBlob([]byte("hello"), "", "").ToImageBlob()
	require.Error(t, err)
	resErr, ok := common.AsResourceError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCodeInvalidImage, resErr.Code)
	assert.Equal(t, "text/plain", resErr.Detail["sniffed_mime"])
}

func TestNewImageBlobRejectsDeclaredMIME(t *testing.T) {
	// 聲明為圖片但內容不是，嗅探結果說了算
	_, err := NewImageBlob([]byte("hello"), "image/png", "png")
	assert.Error(t, err)
}

func TestCompressToJPG(t *testing.T) {
	imageBlob, err := NewImageBlob(opaquePNG(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}), "", "")
	require.NoError(t, err)

	compressed, err := imageBlob.CompressToJPG(85)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", compressed.MIME())
	assert.Equal(t, "jpg", compressed.Extension())

	// 原對象不受影響
	assert.Equal(t, "image/png", imageBlob.MIME())

	decoded, format, err := image.Decode(bytes.NewReader(compressed.Data()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}

func TestCompressToJPGQualityBounds(t *testing.T) {
	imageBlob, err := NewImageBlob(opaquePNG(t, color.Black), "", "")
	require.NoError(t, err)

	for _, quality := range []int{1, 95} {
		_, err := imageBlob.CompressToJPG(quality)
		assert.NoError(t, err, quality)
	}

	for _, quality := range []int{0, -1, 96, 100} {
		_, err := imageBlob.CompressToJPG(quality)
		require.Error(t, err, quality)
		resErr, ok := common.AsResourceError(err)
		require.True(t, ok)
		assert.Equal(t, common.ErrCodeInvalidArgument, resErr.Code)
	}
}

func TestCompressToJPGFlattensAlpha(t *testing.T) {
	imageBlob, err := NewImageBlob(transparentPNG(t), "", "")
	require.NoError(t, err)

	compressed, err := imageBlob.CompressToJPG(90)
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(compressed.Data()))
	require.NoError(t, err)

	// 透明區域合成到白色背景；JPEG 有損，允許少量偏差
	r, g, b, _ := decoded.At(2, 2).RGBA()
	assert.InDelta(t, 0xFFFF, float64(r), 1200)
	assert.InDelta(t, 0xFFFF, float64(g), 1200)
	assert.InDelta(t, 0xFFFF, float64(b), 1200)
}

func TestCompressToJPGRejectsUndecodableContent(t *testing.T) {
	// 僅有簽名、無法解碼的截斷內容
	imageBlob, err := NewImageBlob(pngHeader, "", "")
	require.NoError(t, err)

	_, err = imageBlob.CompressToJPG(85)
	require.Error(t, err)
	resErr, ok := common.AsResourceError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrCodeInvalidImage, resErr.Code)
}
