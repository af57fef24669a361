package syncer

import (
	"context"

	"taskboard/internal/model"
	"taskboard/internal/store"
)

// EnsureLists returns the saved list configuration, bootstrapping the
// default one on first use. The default is persisted immediately so every
// later session reads the same value instead of regenerating it.
func EnsureLists(ctx context.Context, st store.Store) ([]model.List, error) {
	lists, err := st.GetLists(ctx)
	if err != nil {
		return nil, err
	}
	if lists != nil {
		return lists, nil
	}

	lists = model.DefaultLists()
	if err := st.PutLists(ctx, lists); err != nil {
		return nil, err
	}
	return lists, nil
}
