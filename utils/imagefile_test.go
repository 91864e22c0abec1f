package utils

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImageFile(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		size         int64
		expectedCode string
	}{
		{name: "valid png", filename: "producto.png", size: 1024},
		{name: "valid jpg", filename: "producto.jpg", size: 1024},
		{name: "valid jpeg uppercase", filename: "PRODUCTO.JPEG", size: 1024},
		{name: "too large", filename: "producto.png", size: MaxImageSize + 1, expectedCode: "FILE_TOO_LARGE"},
		{name: "wrong format", filename: "producto.gif", size: 1024, expectedCode: "INVALID_FILE_FORMAT"},
		{name: "no extension", filename: "producto", size: 1024, expectedCode: "INVALID_FILE_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &multipart.FileHeader{Filename: tt.filename, Size: tt.size}
			err := ValidateImageFile(header)
			if tt.expectedCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			var fileErr *ImageFileError
			assert.ErrorAs(t, err, &fileErr)
			assert.Equal(t, tt.expectedCode, fileErr.Code)
		})
	}
}
