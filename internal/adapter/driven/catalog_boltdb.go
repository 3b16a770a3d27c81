package driven

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.etcd.io/bbolt"

	"github.com/alorle/catalog-ingest/internal/catalog"
	"github.com/alorle/catalog-ingest/internal/port/driven"
)

const (
	catalogsBucket = "catalogs"
)

// CatalogBoltDBStore implements the CatalogStore port using BoltDB.
// Each provider owns one key holding its latest snapshot as JSON.
type CatalogBoltDBStore struct {
	db *bbolt.DB
}

// NewCatalogBoltDBStore creates a new BoltDB-backed snapshot store.
// It initializes the required bucket if it doesn't exist.
func NewCatalogBoltDBStore(db *bbolt.DB) (*CatalogBoltDBStore, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(catalogsBucket))
		return err
	})
	if err != nil {
		return nil, err
	}

	return &CatalogBoltDBStore{db: db}, nil
}

type snapshotDTO struct {
	SyncID        string             `json:"sync_id"`
	Provider      string             `json:"provider"`
	SyncedAt      string             `json:"synced_at"`
	GuideURL      string             `json:"guide_url,omitempty"`
	Channels      []channelRecordDTO `json:"channels"`
	Movies        []movieRecordDTO   `json:"movies"`
	Series        []seriesRecordDTO  `json:"series"`
	Programmes    []epgEntryDTO      `json:"programmes"`
	GuideChannels []guideChannelDTO  `json:"guide_channels"`
	Warnings      []string           `json:"warnings"`
}

type channelRecordDTO struct {
	Name           string `json:"name"`
	Category       string `json:"category"`
	Logo           string `json:"logo,omitempty"`
	StreamURL      string `json:"stream_url"`
	EPGChannelID   string `json:"epg_channel_id,omitempty"`
	EPGDisplayName string `json:"epg_display_name,omitempty"`
	Country        string `json:"country,omitempty"`
	Language       string `json:"language,omitempty"`
	IsAdult        bool   `json:"is_adult"`
}

type movieRecordDTO struct {
	Name            string  `json:"name"`
	Year            int     `json:"year,omitempty"`
	Category        string  `json:"category"`
	Poster          string  `json:"poster,omitempty"`
	Synopsis        string  `json:"synopsis,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Rating          float64 `json:"rating,omitempty"`
	StreamURL       string  `json:"stream_url"`
	ProviderID      string  `json:"provider_id,omitempty"`
	IsAdult         bool    `json:"is_adult"`
}

type seriesRecordDTO struct {
	Name     string  `json:"name"`
	Year     int     `json:"year,omitempty"`
	Category string  `json:"category"`
	Cover    string  `json:"cover,omitempty"`
	Synopsis string  `json:"synopsis,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	SeriesID string  `json:"series_id"`
	IsAdult  bool    `json:"is_adult"`
}

type epgEntryDTO struct {
	ChannelID   string `json:"channel_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type guideChannelDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Icon        string `json:"icon,omitempty"`
}

func snapshotToDTO(s catalog.Snapshot) snapshotDTO {
	o := s.Outcome
	dto := snapshotDTO{
		SyncID:        s.SyncID,
		Provider:      s.Provider,
		SyncedAt:      s.SyncedAt.UTC().Format(time.RFC3339),
		GuideURL:      o.GuideURL,
		Channels:      make([]channelRecordDTO, 0, len(o.Channels)),
		Movies:        make([]movieRecordDTO, 0, len(o.Movies)),
		Series:        make([]seriesRecordDTO, 0, len(o.Series)),
		Programmes:    make([]epgEntryDTO, 0, len(o.Programmes)),
		GuideChannels: make([]guideChannelDTO, 0, len(o.GuideChannels)),
		Warnings:      append([]string{}, o.Warnings...),
	}
	for _, c := range o.Channels {
		dto.Channels = append(dto.Channels, channelRecordDTO(c))
	}
	for _, m := range o.Movies {
		dto.Movies = append(dto.Movies, movieRecordDTO(m))
	}
	for _, sr := range o.Series {
		dto.Series = append(dto.Series, seriesRecordDTO(sr))
	}
	for _, e := range o.Programmes {
		dto.Programmes = append(dto.Programmes, epgEntryDTO{
			ChannelID:   e.ChannelID,
			Title:       e.Title,
			Description: e.Description,
			Category:    e.Category,
			Start:       e.Start.UTC().Format(time.RFC3339),
			End:         e.End.UTC().Format(time.RFC3339),
		})
	}
	for _, g := range o.GuideChannels {
		dto.GuideChannels = append(dto.GuideChannels, guideChannelDTO(g))
	}
	return dto
}

func dtoToSnapshot(dto snapshotDTO) (catalog.Snapshot, error) {
	syncedAt, err := time.Parse(time.RFC3339, dto.SyncedAt)
	if err != nil {
		return catalog.Snapshot{}, err
	}

	var o catalog.Outcome
	o.GuideURL = dto.GuideURL
	o.Warnings = dto.Warnings
	for _, c := range dto.Channels {
		o.Channels = append(o.Channels, catalog.ChannelRecord(c))
	}
	for _, m := range dto.Movies {
		o.Movies = append(o.Movies, catalog.MovieRecord(m))
	}
	for _, s := range dto.Series {
		o.Series = append(o.Series, catalog.SeriesRecord(s))
	}
	for _, e := range dto.Programmes {
		start, err := time.Parse(time.RFC3339, e.Start)
		if err != nil {
			return catalog.Snapshot{}, err
		}
		end, err := time.Parse(time.RFC3339, e.End)
		if err != nil {
			return catalog.Snapshot{}, err
		}
		entry, err := catalog.NewEpgEntry(e.ChannelID, e.Title, e.Description, e.Category, start, end)
		if err != nil {
			return catalog.Snapshot{}, err
		}
		o.Programmes = append(o.Programmes, entry)
	}
	for _, g := range dto.GuideChannels {
		o.GuideChannels = append(o.GuideChannels, catalog.GuideChannel(g))
	}

	return catalog.Snapshot{
		SyncID:   dto.SyncID,
		Provider: dto.Provider,
		SyncedAt: syncedAt.UTC(),
		Outcome:  o,
	}, nil
}

// Replace stores a snapshot, overwriting whatever the provider had before.
func (s *CatalogBoltDBStore) Replace(ctx context.Context, snapshot catalog.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snapshot.Provider == "" {
		return errors.New("snapshot provider cannot be empty")
	}

	data, err := json.Marshal(snapshotToDTO(snapshot))
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogsBucket))
		if bucket == nil {
			return errors.New("catalogs bucket not found")
		}
		return bucket.Put([]byte(snapshot.Provider), data)
	})
}

// FindByProvider retrieves the snapshot of a provider from BoltDB.
func (s *CatalogBoltDBStore) FindByProvider(ctx context.Context, provider string) (catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Snapshot{}, err
	}

	var snapshot catalog.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogsBucket))
		if bucket == nil {
			return errors.New("catalogs bucket not found")
		}

		data := bucket.Get([]byte(provider))
		if data == nil {
			return catalog.ErrSnapshotNotFound
		}

		var dto snapshotDTO
		if err := json.Unmarshal(data, &dto); err != nil {
			return err
		}

		reconstructed, err := dtoToSnapshot(dto)
		if err != nil {
			return err
		}

		snapshot = reconstructed
		return nil
	})

	return snapshot, err
}

// FindAll retrieves all snapshots, ordered by provider name.
func (s *CatalogBoltDBStore) FindAll(ctx context.Context) ([]catalog.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snapshots []catalog.Snapshot

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogsBucket))
		if bucket == nil {
			return errors.New("catalogs bucket not found")
		}

		// Keys iterate in byte order, which is provider name order.
		return bucket.ForEach(func(k, v []byte) error {
			var dto snapshotDTO
			if err := json.Unmarshal(v, &dto); err != nil {
				return err
			}

			snapshot, err := dtoToSnapshot(dto)
			if err != nil {
				return err
			}

			snapshots = append(snapshots, snapshot)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	if snapshots == nil {
		snapshots = []catalog.Snapshot{}
	}

	return snapshots, nil
}

// Delete removes the snapshot of a provider from BoltDB.
func (s *CatalogBoltDBStore) Delete(ctx context.Context, provider string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(catalogsBucket))
		if bucket == nil {
			return errors.New("catalogs bucket not found")
		}

		key := []byte(provider)
		if bucket.Get(key) == nil {
			return catalog.ErrSnapshotNotFound
		}

		return bucket.Delete(key)
	})
}

// Ping checks if the BoltDB database is accessible and operational.
func (s *CatalogBoltDBStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(catalogsBucket)) == nil {
			return errors.New("catalogs bucket not found")
		}
		return nil
	})
}

var _ driven.CatalogStore = (*CatalogBoltDBStore)(nil)
