// Package uploads stores evidence and location pictures on Cloudinary
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrNotConfigured is returned when no Cloudinary credentials are set
var ErrNotConfigured = errors.New("image uploads are not configured")

// Uploader stores an image and returns its public url
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, folder string) (string, error)
}

// Signer signs uploads the browser sends to Cloudinary directly
type Signer interface {
	Signature(folder string) (timestamp, signature string, err error)
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

// Cloudinary uploads through the Cloudinary upload API
type Cloudinary struct {
	upload    uploadAPI
	apiSecret string
	now       func() time.Time
}

// NewCloudinary builds an uploader from account credentials
func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &Cloudinary{upload: &cld.Upload, apiSecret: apiSecret, now: time.Now}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	resp, err := c.upload.Upload(ctx, file, uploader.UploadParams{Folder: folder})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload image: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Signature signs a direct browser upload into folder
func (c *Cloudinary) Signature(folder string) (timestamp, signature string, err error) {
	timestamp = strconv.FormatInt(c.now().Unix(), 10)
	signature, err = api.SignParameters(url.Values{
		"folder":    []string{folder},
		"timestamp": []string{timestamp},
	}, c.apiSecret)
	if err != nil {
		return "", "", fmt.Errorf("sign upload: %w", err)
	}
	return timestamp, signature, nil
}

// Folder is where images of one investigation are kept
func Folder(officerID, investigationID, kind string) string {
	return fmt.Sprintf("investigations/%s/%s/%s", officerID, investigationID, kind)
}
