// Package cloudsync keeps the local store and the remote mirror consistent.
//
// Reconciliation is a whole-dataset directional replace, never a field-level
// merge: when the remote holds nothing for the owner the local data is pushed,
// otherwise the remote data is pulled over the local data. Between syncs the
// mirrored stores replicate each local write at least once, best effort.
package cloudsync

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/snapshot"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Direction is the outcome of a reconciliation
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
	DirectionNoop Direction = "noop"
)

// LocalDataset loads and atomically replaces an owner's local records
type LocalDataset interface {
	Load(ctx context.Context, ownerID string) (*domain.Dataset, error)
	Replace(ctx context.Context, ownerID string, data *domain.Dataset, opts snapshot.ReplaceOptions) (*snapshot.Counts, error)
}

// Result reports one reconciliation run
type Result struct {
	RunID          string        `json:"runId"`
	OwnerID        string        `json:"ownerId"`
	Direction      Direction     `json:"direction"`
	Trades         int           `json:"trades"`
	Positions      int           `json:"positions"`
	BrokerProfiles int           `json:"brokerProfiles"`
	Unlinked       int           `json:"unlinked,omitempty"` // pulled rows whose local_id could not be updated
	Duration       time.Duration `json:"duration"`
}

// Reconciler runs manual syncs between the local store and the remote mirror
type Reconciler struct {
	remote  domain.RemoteStore
	local   LocalDataset
	locks   *utils.OwnerLocks
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewReconciler creates a reconciler. A nil remote disables sync.
func NewReconciler(
	remote domain.RemoteStore,
	local LocalDataset,
	locks *utils.OwnerLocks,
	timeout time.Duration,
	log zerolog.Logger,
) *Reconciler {
	return &Reconciler{
		remote:  remote,
		local:   local,
		locks:   locks,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("service", "cloudsync").Logger(),
	}
}

// Enabled reports whether a remote mirror is configured
func (r *Reconciler) Enabled() bool {
	return r.remote != nil
}

// Sync reconciles one owner's trades, positions and broker profiles.
//
// A remote fetch failure returns ErrRemoteFetch and leaves local data untouched.
// A failure while writing either side returns ErrSyncAborted; a failed pull
// rolls back, so local data is never left half replaced.
func (r *Reconciler) Sync(ctx context.Context, ownerID string) (*Result, error) {
	if r.remote == nil {
		return nil, domain.ErrSyncDisabled
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	unlock := r.locks.Lock(ownerID)
	defer unlock()

	started := r.now()
	result := &Result{RunID: uuid.NewString(), OwnerID: ownerID, Direction: DirectionNoop}
	log := r.log.With().Str("run_id", result.RunID).Str("owner_id", ownerID).Logger()

	remote, links, err := r.fetchRemote(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Msg("Remote fetch failed, local data kept")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}

	local, err := r.local.Load(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load local data: %w", err)
	}

	cloudHasData := remote.HasSyncedData()
	localHasData := local.HasSyncedData()

	switch {
	case !cloudHasData && localHasData:
		result.Direction = DirectionPush
		if err := r.push(ctx, ownerID, local); err != nil {
			log.Error().Err(err).Msg("Push to remote aborted")
			return nil, fmt.Errorf("%w: %w", domain.ErrSyncAborted, err)
		}
		result.Trades = len(local.Trades)
		result.Positions = len(local.Positions)
		result.BrokerProfiles = len(local.BrokerProfiles)

	case cloudHasData:
		result.Direction = DirectionPull
		counts, err := r.local.Replace(ctx, ownerID, remote, snapshot.ReplaceOptions{KeepWatchlist: true})
		if err != nil {
			log.Error().Err(err).Msg("Pull from remote aborted, local data rolled back")
			return nil, fmt.Errorf("%w: %w", domain.ErrSyncAborted, err)
		}
		result.Trades = counts.Trades
		result.Positions = counts.Positions
		result.BrokerProfiles = counts.BrokerProfiles

		tradeIDs := make([]int64, len(remote.Trades))
		for i := range remote.Trades {
			tradeIDs[i] = remote.Trades[i].ID
		}
		profileIDs := make([]int64, len(remote.BrokerProfiles))
		for i := range remote.BrokerProfiles {
			profileIDs[i] = remote.BrokerProfiles[i].ID
		}
		result.Unlinked = r.relink(ctx, log, ownerID, TableTrades, links.trades, tradeIDs) +
			r.relink(ctx, log, ownerID, TableBrokerProfiles, links.profiles, profileIDs)
	}

	result.Duration = r.now().Sub(started)

	log.Info().
		Str("direction", string(result.Direction)).
		Int("trades", result.Trades).
		Int("positions", result.Positions).
		Int("broker_profiles", result.BrokerProfiles).
		Dur("duration", result.Duration).
		Msg("Sync complete")

	return result, nil
}

func (r *Reconciler) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(callCtx)
}

func (r *Reconciler) selectOwner(ctx context.Context, table, ownerID string) ([]domain.Row, error) {
	var rows []domain.Row
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		rows, err = r.remote.Select(ctx, table, ownerFilter(ownerID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return rows, nil
}

// rowLinks holds the remote row of each pulled record, index-aligned with the dataset
type rowLinks struct {
	trades   []rowLink
	profiles []rowLink
}

type rowLink struct {
	remoteID interface{}
	localID  int64
}

func linkOf(row domain.Row) rowLink {
	return rowLink{remoteID: row[ColRemoteID], localID: row.Int(ColLocalID)}
}

// fetchRemote reads the owner's three mirrored tables and translates them to local records
func (r *Reconciler) fetchRemote(ctx context.Context, ownerID string) (*domain.Dataset, *rowLinks, error) {
	tradeRows, err := r.selectOwner(ctx, TableTrades, ownerID)
	if err != nil {
		return nil, nil, err
	}
	positionRows, err := r.selectOwner(ctx, TablePositions, ownerID)
	if err != nil {
		return nil, nil, err
	}
	profileRows, err := r.selectOwner(ctx, TableBrokerProfiles, ownerID)
	if err != nil {
		return nil, nil, err
	}

	data := &domain.Dataset{
		Trades:         make([]domain.Trade, 0, len(tradeRows)),
		Positions:      make([]domain.Position, 0, len(positionRows)),
		BrokerProfiles: make([]domain.BrokerProfile, 0, len(profileRows)),
	}
	links := &rowLinks{
		trades:   make([]rowLink, 0, len(tradeRows)),
		profiles: make([]rowLink, 0, len(profileRows)),
	}
	for _, row := range tradeRows {
		data.Trades = append(data.Trades, TradeFromRow(row))
		links.trades = append(links.trades, linkOf(row))
	}
	for _, row := range positionRows {
		data.Positions = append(data.Positions, PositionFromRow(row))
	}
	for _, row := range profileRows {
		data.BrokerProfiles = append(data.BrokerProfiles, ProfileFromRow(row))
		links.profiles = append(links.profiles, linkOf(row))
	}
	return data, links, nil
}

// relink points each pulled remote row at the id its record got locally, so
// later mirrored updates and deletes find it. Failures are logged and counted;
// the pulled local data stays.
func (r *Reconciler) relink(ctx context.Context, log zerolog.Logger, ownerID, table string, links []rowLink, localIDs []int64) int {
	failed := 0
	for i, link := range links {
		if i >= len(localIDs) || link.remoteID == nil || link.localID == localIDs[i] {
			continue
		}
		filter := domain.Filter{ColOwner: ownerID, ColRemoteID: link.remoteID}
		err := r.call(ctx, func(ctx context.Context) error {
			return r.remote.Update(ctx, table, filter, domain.Row{ColLocalID: localIDs[i]})
		})
		if err != nil {
			failed++
			log.Warn().
				Err(err).
				Str("table", table).
				Int64("local_id", localIDs[i]).
				Msg("Failed to relink remote row")
		}
	}
	return failed
}

// push replaces the owner's remote rows with the local records, table by table
func (r *Reconciler) push(ctx context.Context, ownerID string, local *domain.Dataset) error {
	syncedAt := r.now()

	trades := make([]domain.Row, 0, len(local.Trades))
	for i := range local.Trades {
		trades = append(trades, TradeToRow(&local.Trades[i], syncedAt))
	}
	positions := make([]domain.Row, 0, len(local.Positions))
	for i := range local.Positions {
		positions = append(positions, PositionToRow(&local.Positions[i], syncedAt))
	}
	profiles := make([]domain.Row, 0, len(local.BrokerProfiles))
	for i := range local.BrokerProfiles {
		profiles = append(profiles, ProfileToRow(&local.BrokerProfiles[i], syncedAt))
	}

	tables := []struct {
		name string
		rows []domain.Row
	}{
		{TableTrades, trades},
		{TablePositions, positions},
		{TableBrokerProfiles, profiles},
	}

	for _, t := range tables {
		err := r.call(ctx, func(ctx context.Context) error {
			return r.remote.Delete(ctx, t.name, ownerFilter(ownerID))
		})
		if err != nil {
			return fmt.Errorf("clear remote %s: %w", t.name, err)
		}
		if len(t.rows) == 0 {
			continue
		}
		err = r.call(ctx, func(ctx context.Context) error {
			return r.remote.Insert(ctx, t.name, t.rows)
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", t.name, err)
		}
	}
	return nil
}
