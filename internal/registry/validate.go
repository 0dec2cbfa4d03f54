package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/agentic-research/populate/api"
)

// Validate checks that every relation target, component, dynamic zone member
// and (if any media attribute exists) mediaUID resolves in c. All problems
// are reported together.
func Validate(ctx context.Context, c Catalog, mediaUID string) error {
	uids, err := c.UIDs(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	needsMedia := false
	for _, uid := range uids {
		ct, err := c.Resolve(ctx, uid)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		names := make([]string, 0, len(ct.Attributes))
		for name := range ct.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			attr := ct.Attributes[name]
			if attr == nil {
				result = multierror.Append(result, fmt.Errorf("%s.%s: empty attribute", uid, name))
				continue
			}
			if attr.Kind() == api.Media {
				needsMedia = true
			}
			if attr.Kind() == api.Relation && attr.Target == "" && !attr.IsMorphTo() {
				result = multierror.Append(result, fmt.Errorf("%s.%s: relation has no target", uid, name))
			}
			for _, target := range attr.Targets() {
				if _, err := c.Resolve(ctx, target); err != nil {
					result = multierror.Append(result, fmt.Errorf("%s.%s: %w", uid, name, err))
				}
			}
		}
	}

	if needsMedia {
		if _, err := c.Resolve(ctx, mediaUID); err != nil {
			if !errors.Is(err, ErrUnknownSchema) {
				return err
			}
			result = multierror.Append(result, fmt.Errorf("media: %w", err))
		}
	}
	return result.ErrorOrNil()
}
