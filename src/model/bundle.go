package model

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/username/bundlefolio/backend/src/models"
)

var ErrBundleNotFound = errors.New("bundle not found")

// Bundle is a persisted, named allocation summing to 100%. The securities
// column stores the allocation list as JSON; symbol and percent are the
// source of truth, shares are a snapshot from creation time and get
// recomputed live in the viewer.
type Bundle struct {
	ID         int64                   `json:"id"`
	CreatorID  int64                   `json:"creator_id"`
	Name       string                  `json:"name"`
	Country    string                  `json:"country"`
	Currency   string                  `json:"currency"`
	Securities []models.StoredSecurity `json:"securities"`
	CreatedAt  time.Time               `json:"created_at"`

	// CreatorName is filled by list/get joins, not stored on the row.
	CreatorName string `json:"creator_name,omitempty"`
}

func (b *Bundle) Create(db *sql.DB) error {
	securitiesJSON, err := json.Marshal(b.Securities)
	if err != nil {
		return err
	}
	b.CreatedAt = time.Now()
	res, err := db.Exec(`
	INSERT INTO bundles (creator_id, name, country, currency, securities, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`,
		b.CreatorID, b.Name, b.Country, b.Currency, string(securitiesJSON), b.CreatedAt)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

func scanBundle(scan func(dest ...any) error) (*Bundle, error) {
	var b Bundle
	var securitiesJSON string
	var creatorName sql.NullString
	if err := scan(&b.ID, &b.CreatorID, &b.Name, &b.Country, &b.Currency, &securitiesJSON, &b.CreatedAt, &creatorName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBundleNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(securitiesJSON), &b.Securities); err != nil {
		return nil, err
	}
	b.CreatorName = creatorName.String
	return &b, nil
}

const bundleSelect = `
	SELECT b.id, b.creator_id, b.name, b.country, b.currency, b.securities, b.created_at, u.username
	FROM bundles b
	JOIN users u ON u.id = b.creator_id`

func GetBundleByID(db *sql.DB, id int64) (*Bundle, error) {
	row := db.QueryRow(bundleSelect+` WHERE b.id = ?`, id)
	return scanBundle(row.Scan)
}

// ListBundles returns all bundles, newest first. Bundles are shareable:
// every authenticated user can browse them.
func ListBundles(db *sql.DB) ([]*Bundle, error) {
	rows, err := db.Query(bundleSelect + ` ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []*Bundle
	for rows.Next() {
		b, err := scanBundle(rows.Scan)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

func ListBundlesByCreator(db *sql.DB, creatorID int64) ([]*Bundle, error) {
	rows, err := db.Query(bundleSelect+` WHERE b.creator_id = ? ORDER BY b.created_at DESC`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bundles []*Bundle
	for rows.Next() {
		b, err := scanBundle(rows.Scan)
		if err != nil {
			return nil, err
		}
		bundles = append(bundles, b)
	}
	return bundles, rows.Err()
}

// DeleteBundle removes a bundle owned by the given user. Deleting someone
// else's bundle is reported as not found rather than forbidden.
func DeleteBundle(db *sql.DB, id, creatorID int64) error {
	res, err := db.Exec(`DELETE FROM bundles WHERE id = ? AND creator_id = ?`, id, creatorID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBundleNotFound
	}
	return nil
}

func CountBundlesByCreator(db *sql.DB, creatorID int64) (int, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM bundles WHERE creator_id = ?`, creatorID).Scan(&count)
	return count, err
}
