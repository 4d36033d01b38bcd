// Package settings is the client's local key-value store: user preferences
// and the saved session. It lives on this machine only and is never
// synchronized to the server.
package settings

import (
	"encoding/json"
	"errors"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketSettings = "settings" // key: "user" -> Settings JSON
	bucketSession  = "session"  // key: "tokens" -> Session JSON
)

// Settings holds the user's preferences. Changes take effect only on an
// explicit Save.
type Settings struct {
	DefaultLanguage    string `json:"default_language"`
	AutoDetectLanguage bool   `json:"auto_detect_language"`
	Notifications      bool   `json:"notifications"`
	HighQualityAudio   bool   `json:"high_quality_audio"`
}

// Defaults returns the settings used before the user saves anything.
func Defaults() *Settings {
	return &Settings{
		DefaultLanguage:    "eng",
		AutoDetectLanguage: true,
		Notifications:      true,
		HighQualityAudio:   false,
	}
}

// Session is the saved token pair from the last login.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store persists Settings and Session in a local bbolt file.
type Store struct {
	db *bbolt.DB
}

func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSettings)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSession)); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved settings, or defaults when nothing was saved yet.
func (s *Store) Load() (*Settings, error) {
	out := Defaults()

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketSettings)).Get([]byte("user"))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Save(settings *Settings) error {
	if settings == nil {
		return errors.New("settings are required")
	}

	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSettings)).Put([]byte("user"), data)
	})
}

// Session returns the saved token pair, or nil when not logged in.
func (s *Store) Session() (*Session, error) {
	var sess *Session

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketSession)).Get([]byte("tokens"))
		if v == nil {
			return nil
		}
		var t Session
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		sess = &t
		return nil
	})

	return sess, err
}

func (s *Store) SaveSession(sess *Session) error {
	if sess == nil {
		return errors.New("session is required")
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Put([]byte("tokens"), data)
	})
}

func (s *Store) ClearSession() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Delete([]byte("tokens"))
	})
}
