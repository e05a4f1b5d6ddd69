package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// DocumentVersion is the export format version
const DocumentVersion = 1

// Document is a full snapshot of one owner's data
type Document struct {
	Version        int                    `json:"version"`
	ExportDate     time.Time              `json:"exportDate"`
	OwnerID        string                 `json:"ownerId"`
	Trades         []domain.Trade         `json:"trades"`
	Positions      []domain.Position      `json:"positions"`
	BrokerProfiles []domain.BrokerProfile `json:"brokerProfiles"`
	Watchlist      []domain.WatchlistItem `json:"watchlist"`
}

// Dataset returns the records held by the document
func (d *Document) Dataset() *domain.Dataset {
	return &domain.Dataset{
		Trades:         d.Trades,
		Positions:      d.Positions,
		BrokerProfiles: d.BrokerProfiles,
		Watchlist:      d.Watchlist,
	}
}

// Export builds a snapshot document of the owner's local data
func (s *Store) Export(ctx context.Context, ownerID string) (*Document, error) {
	data, err := s.Load(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to export: %w", err)
	}

	return &Document{
		Version:        DocumentVersion,
		ExportDate:     time.Now().UTC(),
		OwnerID:        ownerID,
		Trades:         data.Trades,
		Positions:      data.Positions,
		BrokerProfiles: data.BrokerProfiles,
		Watchlist:      data.Watchlist,
	}, nil
}

// Import adds every record of doc to ownerID's data with fresh ids.
// The document's own owner id is ignored. Positions are taken as they are.
func (s *Store) Import(ctx context.Context, ownerID string, doc *Document) (*Counts, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrValidation)
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("%w: unsupported document version %d", domain.ErrValidation, doc.Version)
	}

	counts, err := s.Insert(ctx, ownerID, doc.Dataset())
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("owner_id", ownerID).
		Str("source_owner", doc.OwnerID).
		Int("trades", counts.Trades).
		Int("positions", counts.Positions).
		Msg("Snapshot imported")
	return counts, nil
}

// WriteDocument encodes doc as indented JSON
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// ReadDocument decodes a JSON snapshot document
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid snapshot document: %v", domain.ErrValidation, err)
	}
	return &doc, nil
}
