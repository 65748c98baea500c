// Package aws publishes pairing QR codes to S3 so they can be opened from a
// phone or shared outside the dashboard.
package aws

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog/log"
)

var ErrInvalidDataURI = errors.New("invalid data URI")

type Client struct {
	bucket   string
	region   string
	uploader *s3manager.Uploader
	s3Client *s3.S3
}

func NewClient(region, bucket string) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	log.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("AWS session created successfully")

	return &Client{
		bucket:   bucket,
		region:   region,
		uploader: s3manager.NewUploader(sess),
		s3Client: s3.New(sess),
	}, nil
}

// UploadQRCode stores a pairing QR code given as a base64 data URI and
// returns its public URL. The key is derived from the image content, so the
// same code is never uploaded under two names.
func (c *Client) UploadQRCode(ctx context.Context, settingID, dataURI string) (string, error) {
	data, contentType, err := DecodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	key := QRCodeKey(settingID, data, contentType)

	log.Info().
		Str("bucket", c.bucket).
		Str("key", key).
		Int("content_size", len(data)).
		Msg("Starting QR code upload")

	result, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("bucket", c.bucket).
			Str("key", key).
			Msg("QR code upload failed")
		return "", fmt.Errorf("failed to upload QR code to S3: %w", err)
	}

	_, aclErr := c.s3Client.PutObjectAclWithContext(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		ACL:    aws.String("public-read"),
	})
	if aclErr != nil {
		log.Warn().
			Err(aclErr).
			Str("bucket", c.bucket).
			Str("key", key).
			Msg("Failed to set public-read ACL on QR code, it may not be publicly accessible")
	}

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, c.region, key)

	log.Info().
		Str("s3_url", publicURL).
		Str("s3_location", result.Location).
		Msg("QR code uploaded to S3 successfully")

	return publicURL, nil
}

// QRCodeKey names the object for a QR image.
func QRCodeKey(settingID string, data []byte, contentType string) string {
	sum := sha256.Sum256(data)
	ext := "png"
	if i := strings.LastIndex(contentType, "/"); i >= 0 && i < len(contentType)-1 {
		ext = contentType[i+1:]
		if plus := strings.Index(ext, "+"); plus > 0 {
			ext = ext[:plus]
		}
	}
	return fmt.Sprintf("qrcodes/%s/%s.%s", url.PathEscape(settingID), hex.EncodeToString(sum[:8]), ext)
}

// DecodeDataURI decodes a base64 "data:<type>;base64,<payload>" URI.
func DecodeDataURI(dataURI string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	if contentType == "" {
		contentType = "image/png"
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}
	return data, contentType, nil
}
