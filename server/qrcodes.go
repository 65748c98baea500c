package server

import (
	"context"
	"sync"
	"time"

	"github.com/NextMind-AI/dashsync/connection"
	"github.com/rs/zerolog/log"
)

// QRPublisher uploads a QR data URI and returns a public link.
// *aws.Client implements it.
type QRPublisher interface {
	UploadQRCode(ctx context.Context, settingID, dataURI string) (string, error)
}

type publishedQR struct {
	dataURI string
	url     string
}

// QRTracker publishes each new pairing QR code once and remembers its link.
type QRTracker struct {
	publisher QRPublisher
	timeout   time.Duration

	mu        sync.Mutex
	published map[string]publishedQR
}

func NewQRTracker(publisher QRPublisher) *QRTracker {
	return &QRTracker{
		publisher: publisher,
		timeout:   15 * time.Second,
		published: make(map[string]publishedQR),
	}
}

// Observe is a connection change observer. Uploads run in the background so
// the poll loop is never held up by S3.
func (t *QRTracker) Observe(session connection.Session) {
	if t == nil || t.publisher == nil || session.QRCode == "" {
		return
	}
	if !t.claim(session.SettingID, session.QRCode) {
		return
	}
	go t.publish(session.SettingID, session.QRCode)
}

// claim records dataURI as the code being published for settingID. It
// reports false when that code was already claimed.
func (t *QRTracker) claim(settingID, dataURI string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.published[settingID]; ok && current.dataURI == dataURI {
		return false
	}
	t.published[settingID] = publishedQR{dataURI: dataURI}
	return true
}

func (t *QRTracker) publish(settingID, dataURI string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	url, err := t.publisher.UploadQRCode(ctx, settingID, dataURI)
	if err != nil {
		log.Warn().Err(err).Str("setting_id", settingID).Msg("Failed to publish QR code")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if current := t.published[settingID]; current.dataURI == dataURI {
		t.published[settingID] = publishedQR{dataURI: dataURI, url: url}
	}
}

// URL returns the published link for the setting's current QR code.
func (t *QRTracker) URL(settingID, dataURI string) string {
	if t == nil || dataURI == "" {
		return ""
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if current := t.published[settingID]; current.dataURI == dataURI {
		return current.url
	}
	return ""
}
