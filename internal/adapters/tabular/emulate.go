package tabular

import "context"

// EmulateAppend appends by reading everything, widening the header with any new columns
// and overwriting. It is not atomic; see the package doc
func EmulateAppend(ctx context.Context, a Adapter, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	t, err := a.ReadAll(ctx)
	if err != nil {
		return Classify(OpAppend, err)
	}
	t.Header = UnionHeader(t.Header, rows)
	t.Rows = append(t.Rows, rows...)
	return a.OverwriteAll(ctx, t)
}
