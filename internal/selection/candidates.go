package selection

import (
	"context"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// ResolveCandidates returns the universe patterns are matched against.
// With a module the universe is the module's tables; otherwise it is every
// table with a primary key. Source errors are returned unchanged.
func ResolveCandidates(ctx context.Context, src core.Source, module string) ([]string, error) {
	var (
		names []string
		err   error
	)
	if isBlank(module) {
		names, err = src.ListTablesWithPrimaryKey(ctx)
	} else {
		names, err = src.ListTablesForModule(ctx, module)
	}
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
