// Package store persists card state in a Pebble database. Records are
// keyed by the platform message ID of the sent card.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"cardrelay/pkg/logger"
	"cardrelay/pkg/models"
)

var (
	db     *pebble.DB
	dbPath string
)

const cardKeyPrefix = "card:"

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// GetCardState loads the card state for a message ID. Absence, a store
// error and a corrupt stored value all report absent; the error cases
// are logged but not surfaced as distinct kinds to the caller.
func GetCardState(messageID string) (*models.CardState, bool) {
	if db == nil {
		logger.Error("get_card_state_store_closed", "message_id", messageID)
		return nil, false
	}
	key := []byte(cardKeyPrefix + messageID)
	v, closer, err := db.Get(key)
	if err != nil {
		if err != pebble.ErrNotFound {
			logger.Error("get_card_state_failed", "message_id", messageID, "error", err)
		}
		return nil, false
	}
	if closer != nil {
		defer closer.Close()
	}
	var st models.CardState
	if err := json.Unmarshal(v, &st); err != nil {
		logger.Error("card_state_unmarshal_failed", "message_id", messageID, "error", err)
		return nil, false
	}
	return &st, true
}

// DBSet writes a raw key/value pair. Intended for tooling and tests.
func DBSet(key, value []byte) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	return db.Set(key, value, pebble.Sync)
}

// SaveCardState writes the card state record under its message ID.
func SaveCardState(messageID string, st *models.CardState) error {
	if db == nil {
		return fmt.Errorf("pebble not opened; call store.Open first")
	}
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal card state: %w", err)
	}
	key := []byte(cardKeyPrefix + messageID)
	if err := db.Set(key, data, pebble.Sync); err != nil {
		logger.Error("save_card_state_failed", "message_id", messageID, "error", err)
		return err
	}
	logger.Debug("card_state_saved", "message_id", messageID, "len", len(data))
	return nil
}
