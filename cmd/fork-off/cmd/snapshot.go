package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/selendra/selendra-finality/module/util"
	"github.com/selendra/selendra-finality/utils/jsonrpc"
)

// hex of ":child_storage:default:"
const childStoragePrefix = "0x3a6368696c645f73746f726167653a64656661756c743a"

var (
	flagOutput  string
	flagWorkers int
	flagAt      string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the whole storage of a block to a json file",
	RunE:  snapshotRun,

	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVarP(&flagOutput, "output", "o", "storage.json",
		"path of the written snapshot")
	snapshotCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 8,
		"number of storage values fetched concurrently")
	snapshotCmd.Flags().StringVar(&flagAt, "at", "",
		"hash of the block to snapshot, the best block if empty")
	_ = viper.BindPFlag("workers", snapshotCmd.Flags().Lookup("workers"))
}

// Snapshot is the storage of a single block.
type Snapshot struct {
	Block    jsonrpc.BlockHash                               `json:"block"`
	Top      map[jsonrpc.StorageKey]jsonrpc.StorageValue    `json:"top"`
	Children map[jsonrpc.StorageKey]jsonrpc.ChildStorageMap `json:"childrenDefault"`
}

// StorageSource is the part of the node API a snapshot reads.
type StorageSource interface {
	BestBlock(ctx context.Context) (jsonrpc.BlockHash, error)
	StreamAllKeys(at jsonrpc.BlockHash) (<-chan jsonrpc.StorageKey, func(ctx context.Context) error)
	GetStorage(ctx context.Context, key jsonrpc.StorageKey, at jsonrpc.BlockHash) (jsonrpc.StorageValue, error)
	GetChildStorageForKey(ctx context.Context, childKey jsonrpc.StorageKey, at jsonrpc.BlockHash) (jsonrpc.ChildStorageMap, error)
}

func snapshotRun(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client, err := jsonrpc.Dial(ctx, log, flagEndpoint)
	if err != nil {
		return fmt.Errorf("could not connect to node: %w", err)
	}
	defer client.Close()

	workers := viper.GetInt("workers")
	snapshot, err := TakeSnapshot(ctx, log, clock.New(), client, jsonrpc.BlockHash(flagAt), workers)
	if err != nil {
		return fmt.Errorf("could not take snapshot: %w", err)
	}

	err = writeSnapshot(flagOutput, snapshot)
	if err != nil {
		return err
	}

	log.Info().
		Str("path", flagOutput).
		Int("top_entries", len(snapshot.Top)).
		Int("child_tries", len(snapshot.Children)).
		Msg("snapshot written")
	return nil
}

// writeSnapshot writes the snapshot as indented json. A failure to flush the
// file on close is reported like any write failure.
func writeSnapshot(path string, snapshot *Snapshot) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			err = multierror.Append(err, fmt.Errorf("could not close output file: %w", closeErr))
		}
	}()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(snapshot)
	if err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	return nil
}

// TakeSnapshot reads all storage of the block at, or of the best block when at
// is empty. Child tries that turn out empty are left out.
func TakeSnapshot(
	ctx context.Context,
	log zerolog.Logger,
	clk clock.Clock,
	source StorageSource,
	at jsonrpc.BlockHash,
	workers int,
) (*Snapshot, error) {
	if workers < 1 {
		return nil, fmt.Errorf("need at least one worker, got %d", workers)
	}
	if at == "" {
		best, err := source.BestBlock(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get best block: %w", err)
		}
		at = best
	}
	log = log.With().Str("block", string(at)).Logger()

	stream, fetchKeys := source.StreamAllKeys(at)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return fetchKeys(groupCtx)
	})
	var keys []jsonrpc.StorageKey
	for key := range stream {
		keys = append(keys, key)
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	log.Info().Int("keys", len(keys)).Msg("collected storage keys")

	snapshot := &Snapshot{
		Block:    at,
		Top:      make(map[jsonrpc.StorageKey]jsonrpc.StorageValue, len(keys)),
		Children: make(map[jsonrpc.StorageKey]jsonrpc.ChildStorageMap),
	}
	progress := util.LogProgress(log, clk, util.DefaultProgressConfig("fetching storage", len(keys)))

	var mu sync.Mutex
	jobs := make(chan jsonrpc.StorageKey)
	group, groupCtx = errgroup.WithContext(ctx)
	group.Go(func() error {
		defer close(jobs)
		for _, key := range keys {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case jobs <- key:
			}
		}
		return nil
	})
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for key := range jobs {
				if strings.HasPrefix(string(key), childStoragePrefix) {
					child, err := source.GetChildStorageForKey(groupCtx, key, at)
					if err != nil {
						return fmt.Errorf("could not get child storage %s: %w", key, err)
					}
					if child != nil {
						mu.Lock()
						snapshot.Children[key] = child
						mu.Unlock()
					}
				} else {
					value, err := source.GetStorage(groupCtx, key, at)
					if err != nil {
						return err
					}
					mu.Lock()
					snapshot.Top[key] = value
					mu.Unlock()
				}
				progress(1)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return snapshot, nil
}
