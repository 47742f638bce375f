package object

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"spendreport-backend/internal/shared/util"
)

// ObjectStore saves and retrieves archived report documents by key.
type ObjectStore interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

const (
	archiveRoot    = "reports"
	anonymousOwner = "anonymous"
)

// ArchiveKey returns reports/<owner-hash>/<id>.json. The owner is hashed so
// keys never carry a caller identifier; an empty owner shares one namespace.
func ArchiveKey(ownerID, reportID string) (string, error) {
	owner := strings.TrimSpace(ownerID)
	if owner == "" {
		owner = anonymousOwner
	}
	name, err := util.SanitizeKeySegment(strings.TrimSpace(reportID) + ".json")
	if err != nil || name == ".json" {
		return "", fmt.Errorf("invalid report id %q", reportID)
	}
	return path.Join(archiveRoot, util.HashOwnerKey(owner), name), nil
}
