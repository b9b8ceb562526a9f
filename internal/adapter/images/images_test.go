package images

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  error
	}{
		{"socks.png", "socks.png", nil},
		{"../../etc/passwd", "passwd", nil},
		{`C:\photos\my mug.JPG`, "my_mug.JPG", nil},
		{".hidden.png", "hidden.png", nil},
		{"chaussure é.jpg", "chaussure__.jpg", nil},
		{"/", "", ErrEmptyName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CleanName(tt.in)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentType(t *testing.T) {
	ct, err := ContentType("a.JPEG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	ct, err = ContentType("a.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = ContentType("a.gif")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestLocalStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "img", "products")
	s, err := NewLocalStorage(dir, "/static/img/products")
	require.NoError(t, err)

	err = s.SaveImage(t.Context(), "../mug.png", strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "mug.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "/static/img/products/mug.png", s.ImageURL("mug.png"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/static/img/products/mug.png", nil)
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png-bytes", rec.Body.String())
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(
	ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader),
) (*manager.UploadOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*manager.UploadOutput)
	return out, args.Error(1)
}

func TestS3Storage(t *testing.T) {
	t.Run("Upload", func(t *testing.T) {
		u := new(MockUploader)
		u.On("Upload", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
			body, _ := io.ReadAll(in.Body)
			return aws.ToString(in.Bucket) == "shop" &&
				aws.ToString(in.Key) == "mug.png" &&
				aws.ToString(in.ContentType) == "image/png" &&
				string(body) == "png-bytes"
		})).Return(&manager.UploadOutput{Location: "https://cdn/mug.png"}, nil)

		s := newS3Storage(u, "shop", "https://cdn")
		err := s.SaveImage(t.Context(), "mug.png", strings.NewReader("png-bytes"), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/mug.png", s.ImageURL("mug.png"))
		u.AssertExpectations(t)
	})

	t.Run("UploadFailed", func(t *testing.T) {
		u := new(MockUploader)
		errUpload := errors.New("denied")
		u.On("Upload", mock.Anything, mock.Anything).Return(nil, errUpload)

		s := newS3Storage(u, "shop", "https://cdn/")
		err := s.SaveImage(t.Context(), "mug.png", strings.NewReader(""), "image/png")
		assert.ErrorIs(t, err, errUpload)
	})
}
