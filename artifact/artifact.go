/*
Package artifact is the gateway to durable object storage for rendered
documents.

PURPOSE:
  Invoice and contract PDFs are uploaded once, immutably, and referenced by
  URL from the ledger records. This package defines the gateway interface,
  a MinIO implementation for production, and an in-memory fake for tests.

KEYS:
  Keys are namespaced by document kind ("invoices/", "contracts/") and made
  globally unique with a random token plus a human-readable label, so
  concurrent uploads never collide.
*/
package artifact

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Namespaces for the two document kinds stored here.
const (
	NamespaceInvoices  = "invoices"
	NamespaceContracts = "contracts"
)

// Store accepts a byte buffer under a key and returns a retrievable URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// KeyFor builds a collision-free object key: namespace, random token, and a
// sanitized human label.
func KeyFor(namespace, label string) string {
	return namespace + "/" + uuid.NewString() + "-" + sanitizeLabel(label)
}

// sanitizeLabel keeps object keys portable: path separators and whitespace
// become dashes.
func sanitizeLabel(label string) string {
	r := strings.NewReplacer("/", "-", "\\", "-", " ", "-")
	label = r.Replace(label)
	if label == "" {
		label = "document"
	}
	return label
}
