package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NextMind-AI/dashsync/connection"
	"github.com/redis/go-redis/v9"
)

const sessionTTL = 24 * time.Hour

func sessionKey(settingID string) string {
	return fmt.Sprintf("connection_session:%s", settingID)
}

// SessionStore keeps the last connection session of every channel setting.
type SessionStore struct {
	client *Client
}

func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

func (s *SessionStore) Save(ctx context.Context, session connection.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.rdb.Set(ctx, sessionKey(session.SettingID), data, sessionTTL).Err()
}

func (s *SessionStore) Load(ctx context.Context, settingID string) (connection.Session, bool, error) {
	data, err := s.client.rdb.Get(ctx, sessionKey(settingID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return connection.Session{}, false, nil
	}
	if err != nil {
		return connection.Session{}, false, err
	}

	var session connection.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return connection.Session{}, false, fmt.Errorf("decode session %s: %w", settingID, err)
	}
	return session, true, nil
}

var _ connection.Store = (*SessionStore)(nil)
