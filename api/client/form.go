package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"

	"avocare/models"
)

// Encoding - способ кодирования тела create/edit поста
type Encoding int

const (
	EncodingMultipart Encoding = iota
	// EncodingJSON - устаревший путь создания поста без картинок
	EncodingJSON
)

// Имена полей формы поста
const (
	FieldTitle          = "title"
	FieldContent        = "content"
	FieldCategory       = "category"
	FieldExistingImages = "existingImageUrls"
	FieldRemoveImages   = "removeImages"
	FieldImages         = "images"
)

// ImageFile - локальная картинка, которую нужно загрузить
type ImageFile struct {
	Name    string
	Content []byte
}

// LoadImageFile читает картинку с диска
func LoadImageFile(path string) (ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImageFile{}, fmt.Errorf("read image %s: %w", path, err)
	}
	return ImageFile{Name: filepath.Base(path), Content: data}, nil
}

// PostForm - данные формы создания/редактирования поста.
// При редактировании картинки - объединение ExistingImageURLs (уже на сервере)
// и Images (новые); RemoveImages сообщает серверу, что набор картинок надо очистить.
type PostForm struct {
	Title             string
	Content           string
	Category          models.Category
	ExistingImageURLs []string
	Images            []ImageFile
	RemoveImages      bool
	Encoding          Encoding
}

// ImageCount - итоговое число картинок поста после отправки
func (f *PostForm) ImageCount() int {
	return len(f.ExistingImageURLs) + len(f.Images)
}

// jsonPostBody - тело устаревшего JSON-пути
type jsonPostBody struct {
	Title             string          `json:"title"`
	Content           string          `json:"content"`
	Category          models.Category `json:"category"`
	ExistingImageURLs []string        `json:"existingImageUrls,omitempty"`
	RemoveImages      bool            `json:"removeImages,omitempty"`
}

// Build кодирует форму; возвращает тело и Content-Type
func (f *PostForm) Build() (*bytes.Buffer, string, error) {
	if f.Encoding == EncodingJSON {
		if len(f.Images) > 0 {
			return nil, "", fmt.Errorf("json encoding cannot carry %d image file(s)", len(f.Images))
		}
		data, err := json.Marshal(jsonPostBody{
			Title:             f.Title,
			Content:           f.Content,
			Category:          f.Category,
			ExistingImageURLs: f.ExistingImageURLs,
			RemoveImages:      f.RemoveImages,
		})
		if err != nil {
			return nil, "", err
		}
		return bytes.NewBuffer(data), "application/json", nil
	}
	return f.buildMultipart()
}

func (f *PostForm) buildMultipart() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{FieldTitle, f.Title},
		{FieldContent, f.Content},
		{FieldCategory, string(f.Category)},
	}
	for _, u := range f.ExistingImageURLs {
		fields = append(fields, [2]string{FieldExistingImages, u})
	}
	if f.RemoveImages {
		fields = append(fields, [2]string{FieldRemoveImages, strconv.FormatBool(true)})
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}

	for i, img := range f.Images {
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("image_%d.jpg", i)
		}
		fw, err := w.CreateFormFile(FieldImages, name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(img.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
