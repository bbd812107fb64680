package history

import "context"

// Adapter bridges Store to the core HistoryStore port.
type Adapter struct {
	store *Store
	keep  int
}

// NewAdapter prunes to the newest keep runs after each save; keep <= 0
// disables pruning.
func NewAdapter(store *Store, keep int) *Adapter {
	return &Adapter{store: store, keep: keep}
}

func (a *Adapter) SaveRun(ctx context.Context, run Run, records []Record) (string, error) {
	id, err := a.store.SaveRun(ctx, run, records)
	if err != nil {
		return "", err
	}
	if _, err := a.store.Prune(ctx, run.Project, a.keep); err != nil {
		return id, err
	}
	return id, nil
}

func (a *Adapter) LoadRuns(ctx context.Context, project string, limit int) ([]Run, error) {
	return a.store.LoadRuns(ctx, project, limit)
}

func (a *Adapter) LoadRecords(ctx context.Context, runID string) ([]Record, error) {
	return a.store.LoadRecords(ctx, runID)
}

func (a *Adapter) Close() error {
	return a.store.Close()
}
