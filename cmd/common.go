/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/valpere/hingeval/internal/logger"
	"github.com/valpere/hingeval/internal/store"
	"github.com/valpere/hingeval/internal/translator"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func openStore(path string) (*store.Store, error) {
	db, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func closeService(svc translator.TranslationService) {
	if c, ok := svc.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Log.Warn("failed to close service", "service", svc.Name(), "error", err)
		}
	}
}

// runLog records a command run in the store. A nil store makes it a no-op so
// commands can run without a database.
type runLog struct {
	db *store.Store
	id string
}

func startRun(ctx context.Context, db *store.Store, command, provider, input, output string) *runLog {
	rl := &runLog{db: db}
	if db == nil {
		return rl
	}
	id, err := db.StartRun(ctx, command, provider, input, output)
	if err != nil {
		logger.Log.Warn("failed to record run", "command", command, "error", err)
		return rl
	}
	rl.id = id
	return rl
}

func (rl *runLog) finish(runErr error, rows, failures int) {
	if rl.db == nil || rl.id == "" {
		return
	}
	status := store.RunCompleted
	if runErr != nil {
		status = store.RunFailed
	}
	if err := rl.db.FinishRun(context.Background(), rl.id, status, rows, failures); err != nil {
		logger.Log.Warn("failed to finish run record", "id", rl.id, "error", err)
	}
}
