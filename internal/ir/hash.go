package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSnapshot separates snapshot digests from any other hash use.
// The version suffix leaves room for a future algorithm change.
const DomainSnapshot = "pipecraft/snapshot/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentDigest hashes the user-editable content of an entity: name, type,
// folder, dependencies, config and data. Identity, status and creation time
// are excluded, so recomputing an entity does not change its digest.
func ContentDigest(e Entity) (string, error) {
	deps := e.Dependencies
	if deps == nil {
		deps = []string{}
	}
	content := map[string]any{
		"name":         e.Name,
		"type":         e.Type,
		"folderId":     e.FolderID,
		"dependencies": deps,
		"config":       e.Config,
		"data":         e.Data,
	}

	canonical, err := MarshalCanonical(content)
	if err != nil {
		return "", fmt.Errorf("content digest: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}
