// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/BricklayerDAO/mrtr-token/eventdb"
)

const exportBatch = 1000

func exportEventsAction(ctx *cli.Context) error {
	initLogger(ctx)
	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)

	dir := filepath.Join(instanceDir, "events.db")
	db, err := eventdb.New(dir)
	if err != nil {
		return fmt.Errorf("open event database [%v]: %w", dir, err)
	}
	defer db.Close()

	out := os.Stdout
	if path := ctx.String(outputFlag.Name); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	total, err := db.MaxSequence(context.Background())
	if err != nil {
		return err
	}

	bar := pb.New64(int64(total)).
		Set64(0).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	encoder := json.NewEncoder(out)
	var offset uint64
	for {
		batch, err := db.Filter(context.Background(), &eventdb.Filter{
			Options: &eventdb.Options{Offset: offset, Limit: exportBatch},
		})
		if err != nil {
			return err
		}
		for _, ev := range batch {
			if err := encoder.Encode(ev); err != nil {
				return err
			}
			bar.Add64(1)
		}
		offset += uint64(len(batch))
		if len(batch) < exportBatch {
			break
		}
	}
	bar.Finish()

	logger.Info("exported events", "count", offset)
	return nil
}
