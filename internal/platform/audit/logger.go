package audit

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Entry struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id"`
	Action         string                 `json:"action"`
	EntityType     string                 `json:"entity_type"`
	EntityID       string                 `json:"entity_id"`
	Metadata       map[string]interface{} `json:"metadata"`
	CreatedAt      int64                  `json:"created_at"`
}

// Logger appends decision records (approvals, rejections, removals) to
// the audit_logs table. Writes never block the primary transition; a
// failed insert is logged as a warning rather than returned.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(orgID, actorID, action, entityType, entityID string, metadata map[string]interface{}) {
	metaJSON, _ := json.Marshal(metadata)

	entry := &Entry{
		ID:             "audit_" + uuid.NewString(),
		OrganizationID: orgID,
		UserID:         actorID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Metadata:       metadata,
		CreatedAt:      time.Now().Unix(),
	}

	go func() {
		_, err := l.db.Exec(`
			INSERT INTO audit_logs (id, organization_id, user_id, action, entity_type, entity_id, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, entry.ID, entry.OrganizationID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, string(metaJSON), entry.CreatedAt)
		if err != nil {
			log.Warn().Err(err).
				Str("action", action).
				Str("entity_id", entityID).
				Msg("audit log write failed")
		}
	}()
}

// ListByOrg returns the most recent entries for an organization.
func (l *Logger) ListByOrg(orgID string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, organization_id, user_id, action, entity_type, entity_id, metadata, created_at
		FROM audit_logs WHERE organization_id = ?
		ORDER BY created_at DESC LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e := &Entry{}
		var metaStr string
		if err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &metaStr, &e.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(metaStr), &e.Metadata)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
