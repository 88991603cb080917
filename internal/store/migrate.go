package store

import (
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Earlier releases stored records with camelCase field names. MigrateLegacy
// rewrites such records in place so the rest of the code only ever sees the
// canonical snake_case shape. It runs once at load and is a no-op on
// up-to-date databases.

// legacyKeyRenames maps old field names to their canonical replacement,
// applied at every nesting level of a record.
var legacyKeyRenames = map[string]string{
	"previousChapter":    "previous_chapter",
	"imageURL":           "image",
	"roleID":             "role_id",
	"titleName":          "title_name",
	"unreadEnabled":      "unread_enabled",
	"showAlerts":         "show_alerts",
	"receiveChangelog":   "receive_changelog",
	"buttonOnNewChapter": "button_on_new_chapter",
	"lastActiveAt":       "last_active_at",
	"channelID":          "channel_id",
	"defaultRoleID":      "default_role_id",
	"mentionAllRoles":    "mention_all_roles",
}

// MigrateLegacy upgrades all user and server records that still carry legacy
// field names. Returns the number of records rewritten.
func (s *Store) MigrateLegacy() (int, error) {
	migrated := 0
	for _, prefix := range []string{"user:", "server:"} {
		n, err := s.migratePrefix(prefix)
		if err != nil {
			return migrated, err
		}
		migrated += n
	}
	return migrated, nil
}

func (s *Store) migratePrefix(prefix string) (int, error) {
	// Collect upgraded records under a read transaction, then write them
	// back in batches small enough for a single transaction each.
	type upgrade struct {
		key  []byte
		data []byte
	}
	var upgrades []upgrade

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			if isIndexKey(prefix, key) {
				continue
			}

			err := item.Value(func(val []byte) error {
				var record map[string]any
				if err := json.Unmarshal(val, &record); err != nil {
					return fmt.Errorf("record %s is not an object: %w", key, err)
				}
				if !renameLegacyKeys(record) {
					return nil
				}
				data, err := json.Marshal(record)
				if err != nil {
					return fmt.Errorf("re-marshaling %s: %w", key, err)
				}
				upgrades = append(upgrades, upgrade{key: key, data: data})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, up := range upgrades {
		err := s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(up.key, up.data)
		})
		if err != nil {
			return 0, fmt.Errorf("writing upgraded record %s: %w", up.key, err)
		}
	}

	return len(upgrades), nil
}

// renameLegacyKeys renames keys in place at every nesting level and reports
// whether anything changed.
func renameLegacyKeys(record map[string]any) bool {
	changed := false
	for key, value := range record {
		if canonical, ok := legacyKeyRenames[key]; ok {
			delete(record, key)
			record[canonical] = value
			key = canonical
			changed = true
		}
		switch v := record[key].(type) {
		case map[string]any:
			if renameLegacyKeys(v) {
				changed = true
			}
		case []any:
			for _, elem := range v {
				if nested, ok := elem.(map[string]any); ok && renameLegacyKeys(nested) {
					changed = true
				}
			}
		}
	}
	return changed
}

func isIndexKey(prefix string, key []byte) bool {
	rest := string(key[len(prefix):])
	return len(rest) >= 4 && rest[:4] == "idx:"
}
