// Package sheets keeps the table in one Google Sheets worksheet: row 1 is the header,
// every following row a record.
//
// OverwriteAll is two calls, an update from A1 and then a clear of the old tail. When
// the new table is narrower than the old one (a repair dropping or merging columns), a
// reader between the two calls sees the new header next to stale cells from the old
// columns. Appends only grow the sheet, so only repair rewrites hit this window
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"likert/internal/adapters/tabular"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Config selects the worksheet and credentials
type Config struct {
	SpreadsheetID   string
	Sheet           string // worksheet title, Sheet1 when empty
	CredentialsFile string
	CredentialsJSON []byte
}

// DefaultSheet is the worksheet used when none is configured
const DefaultSheet = "Sheet1"

// lastCol bounds the cleared tail; sheets never grow this wide
const lastCol = "ZZZ"

// Adapter talks to the Sheets values API
type Adapter struct {
	svc   *gsheets.Service
	id    string
	sheet string
}

// New builds a service from cfg; extra client options (endpoint, http client) go after
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Adapter, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("sheets spreadsheet id required")
	}
	base := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case len(cfg.CredentialsJSON) > 0:
		base = append(base, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.CredentialsFile != "":
		base = append(base, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := gsheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.Sheet), nil
}

// NewWithService wraps an existing service
func NewWithService(svc *gsheets.Service, spreadsheetID, sheet string) *Adapter {
	if sheet == "" {
		sheet = DefaultSheet
	}
	return &Adapter{svc: svc, id: spreadsheetID, sheet: sheet}
}

// a1 addresses sheet, optionally narrowed to cells
func (a *Adapter) a1(cells string) string {
	q := "'" + strings.ReplaceAll(a.sheet, "'", "''") + "'"
	if cells == "" {
		return q
	}
	return q + "!" + cells
}

// ReadAll reads the worksheet; an empty worksheet is an empty table
func (a *Adapter) ReadAll(ctx context.Context) (tabular.Table, error) {
	return a.read(ctx, tabular.OpReadAll)
}

func (a *Adapter) read(ctx context.Context, op string) (tabular.Table, error) {
	vr, err := a.svc.Spreadsheets.Values.Get(a.id, a.a1("")).Context(ctx).Do()
	if err != nil {
		return tabular.Table{}, classify(op, err)
	}
	grid := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		grid[i] = make([]string, len(row))
		for j, v := range row {
			grid[i][j] = cell(v)
		}
	}
	return tabular.FromGrid(op, grid)
}

// Append is read, widen, overwrite
func (a *Adapter) Append(ctx context.Context, rows []tabular.Row) error {
	return tabular.EmulateAppend(ctx, a, rows)
}

// OverwriteAll writes the new grid from A1 and then clears whatever the old content
// had below or to the right of it, so readers never see an empty sheet in between
func (a *Adapter) OverwriteAll(ctx context.Context, t tabular.Table) error {
	const op = tabular.OpOverwriteAll
	grid := t.Grid()
	values := make([][]any, len(grid))
	for i, row := range grid {
		values[i] = make([]any, len(row))
		for j, v := range row {
			values[i][j] = v
		}
	}

	_, err := a.svc.Spreadsheets.Values.
		Update(a.id, a.a1("A1"), &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify(op, err)
	}

	width := len(grid[0])
	tails := []string{a.a1(fmt.Sprintf("A%d:%s", len(grid)+1, lastCol))}
	if width > 0 {
		tails = append(tails, a.a1(fmt.Sprintf("%s1:%s", colName(width+1), lastCol)))
	}
	for _, rng := range tails {
		if _, err := a.svc.Spreadsheets.Values.Clear(a.id, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return classify(op, err)
		}
	}
	return nil
}

// Ping fetches spreadsheet metadata only
func (a *Adapter) Ping(ctx context.Context) error {
	if _, err := a.svc.Spreadsheets.Get(a.id).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return classify(tabular.OpPing, err)
	}
	return nil
}

// Caps reports no concurrency guarantees
func (a *Adapter) Caps() tabular.Caps { return tabular.Caps{} }

// Driver names the store
func (a *Adapter) Driver() tabular.Driver { return tabular.DriverSheets }

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// colName turns a 1 based column index into its letters: 1 A, 26 Z, 27 AA
func colName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// classify maps API failures: a range or spreadsheet that does not resolve is a
// layout problem, auth, quota and server trouble is unavailability
func classify(op string, err error) error {
	var ge *googleapi.Error
	if errors.As(err, &ge) {
		switch {
		case ge.Code == http.StatusBadRequest || ge.Code == http.StatusNotFound:
			return tabular.StoreSchemaMismatch(op, "worksheet not usable: %s", ge.Message)
		case ge.Code == http.StatusUnauthorized, ge.Code == http.StatusForbidden,
			ge.Code == http.StatusTooManyRequests, ge.Code >= 500:
			return tabular.StoreUnavailable(op, err)
		}
	}
	return tabular.Classify(op, err)
}
