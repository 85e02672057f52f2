package gateway

import (
	"context"

	"github.com/binhbb2204/nocturne/internal/apperr"
)

// ToggleLibrary removes novelID from uid's library when saved, else adds
// it, and returns the new membership. Both writes are idempotent, so a
// stale saved flag never corrupts the set.
func ToggleLibrary(ctx context.Context, gw Gateway, uid, novelID string, saved bool) (bool, error) {
	var err error
	if saved {
		err = gw.RemoveFromLibrary(ctx, uid, novelID)
	} else {
		err = gw.AddToLibrary(ctx, uid, novelID)
	}
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeInternal {
			err = apperr.Wrap(apperr.CodeWriteFailed, "library update failed", err)
		}
		return saved, err
	}
	return !saved, nil
}
