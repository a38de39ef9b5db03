package store

import (
	"database/sql"
	"fmt"
	"strings"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/tonyski/bbmemo/internal/fingerprint"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver with custom SQL functions.
	SQLiteDriverName = "sqlite3_bbmemo"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("content_fingerprint", sqliteContentFingerprint, true); err != nil {
				if strings.Contains(strings.ToLower(err.Error()), "already exists") {
					return nil
				}
				return fmt.Errorf("register content_fingerprint SQL function: %w", err)
			}
			return nil
		},
	})
}

// sqliteContentFingerprint exposes the content fingerprint to SQL so legacy
// rows can be backfilled in a single UPDATE during open-time repair.
func sqliteContentFingerprint(input any) (string, error) {
	switch x := input.(type) {
	case nil:
		return fingerprint.Hash(""), nil
	case string:
		return fingerprint.Hash(x), nil
	case []byte:
		return fingerprint.Hash(string(x)), nil
	default:
		return "", fmt.Errorf("unsupported content_fingerprint input type: %T", input)
	}
}
