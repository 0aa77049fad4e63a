package changeset

import (
	"context"
	"sort"

	"github.com/arthur-debert/changepack/pkg/errors"
	"github.com/arthur-debert/changepack/pkg/logging"
	"github.com/arthur-debert/changepack/pkg/types"
)

// Resolve fetches the changesets named by spec. Single and list specs are
// fetched one by one and returned by id descending, duplicates kept. A
// range is one history query on serverRoot and keeps the backend's order.
func Resolve(ctx context.Context, vc types.VersionControl, serverRoot string, spec Spec) ([]*types.Changeset, error) {
	logger := logging.GetLogger("changeset")

	if err := validate(spec); err != nil {
		return nil, err
	}

	if spec.Kind == KindRange {
		from, to := spec.Bounds()
		logger.Debug().
			Str("serverPath", serverRoot).
			Int("from", from).
			Int("to", to).
			Msg("Querying history")

		history, err := vc.QueryHistory(ctx, serverRoot, from, to)
		if err != nil {
			return nil, backendError(ctx, err, "failed to query history for %s", spec.Name())
		}
		logger.Info().Int("changesets", len(history)).Str("spec", spec.Name()).Msg("Resolved changeset range")
		return history, nil
	}

	resolved := make([]*types.Changeset, 0, len(spec.IDs))
	for _, id := range spec.IDs {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCanceled, "changeset resolution canceled")
		}
		logger.Debug().Int("changeset", id).Msg("Fetching changeset")
		cs, err := vc.GetChangeset(ctx, id)
		if err != nil {
			return nil, backendError(ctx, err, "failed to fetch changeset %d", id)
		}
		resolved = append(resolved, cs)
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].ID > resolved[j].ID
	})
	logger.Info().Int("changesets", len(resolved)).Str("spec", spec.Name()).Msg("Resolved changesets")
	return resolved, nil
}

func validate(spec Spec) error {
	switch spec.Kind {
	case KindRange:
		if spec.From <= 0 || spec.To <= 0 {
			return errors.Newf(errors.ErrInvalidSpec, "invalid range %d~%d", spec.From, spec.To)
		}
	case KindSingle, KindList:
		if len(spec.IDs) == 0 {
			return errors.New(errors.ErrInvalidSpec, "no changeset ids given")
		}
		if spec.Kind == KindSingle && len(spec.IDs) != 1 {
			return errors.Newf(errors.ErrInvalidSpec, "single spec carries %d ids", len(spec.IDs))
		}
		for _, id := range spec.IDs {
			if id <= 0 {
				return errors.Newf(errors.ErrInvalidSpec, "%d is not a valid changeset id", id)
			}
		}
	default:
		return errors.Newf(errors.ErrInvalidSpec, "unknown spec kind %d", spec.Kind)
	}
	return nil
}

// backendError keeps coded backend errors and marks anything else as the
// backend being unavailable, or canceled when ctx is done
func backendError(ctx context.Context, err error, format string, args ...interface{}) error {
	code := errors.GetErrorCode(err)
	if ctx.Err() != nil {
		code = errors.ErrCanceled
	} else if code == errors.ErrUnknown {
		code = errors.ErrBackendUnavailable
	}
	return errors.Wrapf(err, code, format, args...)
}
