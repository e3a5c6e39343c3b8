package lsp

import (
	"strings"
	"sync"

	"github.com/raydienull/SphereScripter/pkg/lsp/protocol"
)

// Document is an open text document and its metadata.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Content    string
}

// normalizeURI ensures consistent URI handling by removing the file:// prefix
// if present.
func normalizeURI(uri string) string {
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// DocumentManager tracks open documents, keyed by normalized URI.
type DocumentManager struct {
	store *sync.Map // map[string]*Document
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri protocol.DocumentURI) (*Document, bool) {
	content, ok := m.store.Load(normalizeURI(string(uri)))
	if !ok {
		return nil, false
	}
	doc, ok := content.(*Document)
	return doc, ok
}

func (m *DocumentManager) Store(uri protocol.DocumentURI, doc *Document) {
	m.store.Store(normalizeURI(string(uri)), doc)
}

func (m *DocumentManager) Delete(uri protocol.DocumentURI) {
	m.store.Delete(normalizeURI(string(uri)))
}
