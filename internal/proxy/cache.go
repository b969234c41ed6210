// Package proxy проксирует запросы фронтенда к внешним explorer API.
// Браузер не может ходить к ним напрямую из-за CORS, поэтому сервер
// форвардит запросы и кеширует ответы с коротким TTL, чтобы не упираться
// в лимиты публичных API.
package proxy

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var cacheBucket = []byte("responses")

// cachedResponse хранится в bbolt как JSON
type cachedResponse struct {
	FetchedAt   time.Time `json:"fetched_at"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
}

// Cache is a TTL cache for upstream responses, persisted in bbolt.
// Entries past their TTL are invisible to Get and overwritten by Put.
type Cache struct {
	db  *bbolt.DB
	ttl time.Duration
}

// OpenCache opens (or creates) the cache database at path
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached body and content type for key.
// Вторым результатом false, если записи нет или она протухла
func (c *Cache) Get(key string, now time.Time) (body []byte, contentType string, ok bool) {
	var cached cachedResponse

	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &cached)
	})
	if err != nil || cached.FetchedAt.IsZero() {
		return nil, "", false
	}

	if now.Sub(cached.FetchedAt) >= c.ttl {
		return nil, "", false
	}

	return cached.Body, cached.ContentType, true
}

// Put stores a response body under key
func (c *Cache) Put(key string, body []byte, contentType string, now time.Time) error {
	raw, err := json.Marshal(cachedResponse{
		FetchedAt:   now,
		ContentType: contentType,
		Body:        body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cached response: %w", err)
	}

	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(key), raw)
	})
	if err != nil {
		return fmt.Errorf("failed to store cached response: %w", err)
	}

	return nil
}

// Sweep deletes all expired entries and returns how many were removed.
// Вызывается периодически, чтобы файл кеша не рос бесконечно
func (c *Cache) Sweep(now time.Time) (int, error) {
	deleted := 0

	err := c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(cacheBucket)
		cursor := bucket.Cursor()

		var expired [][]byte
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var cached cachedResponse
			if err := json.Unmarshal(v, &cached); err != nil || now.Sub(cached.FetchedAt) >= c.ttl {
				key := make([]byte, len(k))
				copy(key, k)
				expired = append(expired, key)
			}
		}

		for _, key := range expired {
			if err := bucket.Delete(key); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, fmt.Errorf("failed to sweep cache: %w", err)
	}

	return deleted, nil
}
