package resource

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"image-normalizer/internal/pkg/common"
)

// Blob 物化後的資源內容。
// MIME 與擴展名在構造時嗅探一次後凍結；對象構造後只讀，不需要加鎖。
type Blob struct {
	data      []byte
	mime      string
	extension string
}

// NewBlob 構造資源內容。嗅探結果優先，defaultMIME/defaultExtension 僅作兜底。
func NewBlob(data []byte, defaultMIME string, defaultExtension string) *Blob {
	mime, extension := SniffFileType(data, defaultMIME, defaultExtension)
	return &Blob{
		data:      data,
		mime:      mime,
		extension: extension,
	}
}

// Data 返回位元組內容
func (b *Blob) Data() []byte { return b.data }

// MIME 返回嗅探確定的 MIME；永不為空
func (b *Blob) MIME() string { return b.mime }

// Extension 返回嗅探確定的擴展名（不帶點）；永不為空
func (b *Blob) Extension() string { return b.extension }

// Size 返回內容大小（位元組）
func (b *Blob) Size() int { return len(b.data) }

// ToBase64 編碼內容為 base64 字符串
func (b *Blob) ToBase64() string {
	return EncodeBase64Payload(b.data)
}

// ToDataURL 編碼內容為 data URL
func (b *Blob) ToDataURL() (string, error) {
	return BuildDataURL(b.mime, b.ToBase64())
}

// Save 將內容寫入目標路徑，按需創建父目錄。
// 先寫入同目錄臨時文件再改名，寫入中斷不會在目標路徑留下半成品。
func (b *Blob) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tempPath := path + ".tmp-" + common.GenerateUUID()
	if err := os.WriteFile(tempPath, b.data, 0644); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to finalize file: %w", err)
	}
	return nil
}

// ToImageBlob 將內容重新包裝為圖片資源，重新檢查 image/* 不變式
func (b *Blob) ToImageBlob() (*ImageBlob, error) {
	return NewImageBlob(b.data, b.mime, b.extension)
}

// ImageBlob 保證 MIME 為 image/* 的資源內容
type ImageBlob struct {
	Blob
}

// NewImageBlob 構造圖片資源；嗅探結果不是 image/* 時拒絕
func NewImageBlob(data []byte, defaultMIME string, defaultExtension string) (*ImageBlob, error) {
	blob := NewBlob(data, defaultMIME, defaultExtension)
	if !strings.HasPrefix(blob.mime, "image/") {
		return nil, common.NewResourceError(common.ErrCodeInvalidImage, "image mime is not valid", false, map[string]interface{}{
			"sniffed_mime": blob.mime,
			"size":         len(data),
		})
	}
	return &ImageBlob{Blob: *blob}, nil
}
