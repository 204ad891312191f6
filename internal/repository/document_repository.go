package repository

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pos-backoffice/pkg/apperrors"
)

// DocumentRepository resolves document IDs to download URLs and fetches
// their content. Storage itself is a black box reached over HTTP; only
// the path lookup lives in the database.
type DocumentRepository struct {
	db      *sql.DB
	baseURL string
	client  *http.Client
}

func NewDocumentRepository(db *sql.DB, baseURL string) *DocumentRepository {
	return &DocumentRepository{
		db:      db,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SignedURL returns the download URL for a document.
func (r *DocumentRepository) SignedURL(documentID string) (string, error) {
	var filePath string
	err := r.db.QueryRow(
		`SELECT file_path FROM documents WHERE id = $1 AND file_path IS NOT NULL`,
		documentID,
	).Scan(&filePath)
	if err == sql.ErrNoRows {
		return "", apperrors.PersistenceError(err, "document %s has no stored file", documentID)
	}
	if err != nil {
		return "", apperrors.PersistenceError(err, "failed to look up document %s", documentID)
	}
	return r.baseURL + "/" + strings.TrimLeft(filePath, "/"), nil
}

// Fetch downloads the content behind a resolved document URL.
func (r *DocumentRepository) Fetch(url string) ([]byte, error) {
	resp, err := r.client.Get(url)
	if err != nil {
		return nil, apperrors.NetworkError(err, "failed to download document from %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NetworkError(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			"failed to download document from %s", url,
		)
	}
	return io.ReadAll(resp.Body)
}
