package settle

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/blockberries/cramberry/pkg/cramberry"
	"go.uber.org/zap"

	"github.com/blockberries/subnet"
	"github.com/blockberries/subnet/types"
)

// Observer promotes settled transactions from the pending pool into
// the subnet log. It runs as a background task: each pass drops
// expired entries, scans new ledger heights for settlement entries
// matching the remaining ids, and appends a "tx" operation for each
// confirmation found.
type Observer struct {
	pool   *Pool
	client subnet.SettlementClient
	log    subnet.ReplicatedLog
	expiry time.Duration
	zlog   *zap.Logger

	// now is swappable for tests.
	now func() time.Time

	// scanned tracks the next unscanned ledger height per pending id.
	scanned map[string]uint64
}

// NewObserver creates an observer over the given pool, ledger client,
// and log.
func NewObserver(pool *Pool, client subnet.SettlementClient, log subnet.ReplicatedLog, expiry time.Duration, zlog *zap.Logger) *Observer {
	return &Observer{
		pool:    pool,
		client:  client,
		log:     log,
		expiry:  expiry,
		zlog:    zlog.Named("observer"),
		now:     time.Now,
		scanned: make(map[string]uint64),
	}
}

// Run is one observer pass, shaped as a task.Worker. It returns zero
// to keep the runner's configured interval.
func (o *Observer) Run(ctx context.Context) (time.Duration, error) {
	pending := o.pool.Snapshot()
	if len(pending) == 0 {
		return 0, nil
	}

	confirmed, err := o.client.ConfirmedHeight(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := o.now().Add(-o.expiry)
	for _, tx := range pending {
		if tx.CreatedAt.ToTime().Before(cutoff) {
			o.zlog.Info("dropping expired pending transaction",
				zap.String("txid", tx.TxID))
			o.pool.Delete(tx.TxID)
			delete(o.scanned, tx.TxID)
			continue
		}
		if err := o.scan(ctx, tx, confirmed); err != nil {
			return 0, err
		}
	}
	return 0, nil
}

// scan searches the unscanned confirmed heights for a settlement
// entry keyed by the pending id. On a hit it appends the final tx
// operation and removes the entry from the pool. The scan position
// advances only past heights that held no usable entry, so a failed
// append is retried at the same height on the next pass.
func (o *Observer) scan(ctx context.Context, tx types.PendingTx, confirmed uint64) error {
	h := o.scanned[tx.TxID]
	for h < confirmed {
		raw, err := o.client.EntryAt(ctx, h+1, tx.TxID)
		if err != nil {
			if !errors.Is(err, subnet.ErrNoEntry) {
				return err
			}
			h++
			o.scanned[tx.TxID] = h
			continue
		}
		promoted, err := o.promote(ctx, tx, h+1, raw)
		if err != nil {
			return err
		}
		h++
		o.scanned[tx.TxID] = h
		if promoted {
			o.pool.Delete(tx.TxID)
			delete(o.scanned, tx.TxID)
			return nil
		}
	}
	o.scanned[tx.TxID] = h
	return nil
}

// promote appends the final tx operation for a settlement entry.
// An unusable entry is skipped with a warning and reported as not
// promoted, so the scan moves on.
func (o *Observer) promote(ctx context.Context, tx types.PendingTx, height uint64, raw []byte) (bool, error) {
	var ent types.SettlementEntry
	if err := cramberry.Unmarshal(raw, &ent); err != nil {
		o.zlog.Warn("malformed settlement entry for pending transaction",
			zap.String("txid", tx.TxID), zap.Uint64("height", height))
		return false, nil
	}
	validator, err := o.client.AddressOf(ent.Validator)
	if err != nil {
		o.zlog.Warn("cannot resolve validator address",
			zap.String("txid", tx.TxID), zap.Error(err))
		return false, nil
	}

	value, err := json.Marshal(types.TxPayload{
		TxID:      tx.TxID,
		Height:    height,
		Requester: tx.Command.Requester,
		Validator: validator,
		Dispatch:  tx.Command.Dispatch,
	})
	if err != nil {
		return false, err
	}
	if err := o.log.Append(ctx, types.Operation{Type: "tx", Value: value}); err != nil {
		return false, err
	}

	o.zlog.Info("promoted settled transaction",
		zap.String("txid", tx.TxID), zap.Uint64("height", height))
	return true, nil
}
