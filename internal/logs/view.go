package logs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/a2a-routing/console/internal/backend"
	"github.com/a2a-routing/console/internal/models"
)

var (
	ErrNoUsersSelected = errors.New("no users selected")
	ErrNothingToExport = errors.New("nothing to export")
	ErrNoSuchRow       = errors.New("no such log row")
	// ErrStale is returned when the view was reset while a fetch was in flight;
	// the late response is discarded.
	ErrStale = errors.New("log view was reset during the request")
)

// Poster sends a JSON body to the backend and decodes the answer
type Poster interface {
	PostJSON(ctx context.Context, creds backend.Credentials, path string, in, out interface{}) error
}

// Loading reports in-flight operations of a view
type Loading struct {
	Fetching        bool `json:"fetching"`
	DownloadingJSON bool `json:"downloading_json"`
	DownloadingCSV  bool `json:"downloading_csv"`
}

// Row is one displayed record; Index is its position in the fetched collection
type Row[R any] struct {
	Index  int  `json:"index"`
	Open   bool `json:"open"`
	Record R    `json:"record"`
}

// Snapshot is the rendered state of a view
type Snapshot[R any, F Filter] struct {
	Kind         string   `json:"kind"`
	Total        int      `json:"total"`
	Shown        int      `json:"shown"`
	FetchedUsers int      `json:"fetched_users"`
	Filter       F        `json:"filter"`
	Loading      Loading  `json:"loading"`
	Rows         []Row[R] `json:"rows"`
}

// Export is a generated download
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// View is the log pipeline of one page: the last fetched collection, the
// current filter and the open detail rows. What it displays is always a
// function of the fetched records and the filter.
type View[R any, F Filter] struct {
	kind       *Kind[R, F]
	loc        *time.Location
	minLoading time.Duration
	now        func() time.Time

	mu           sync.Mutex
	records      []R
	fetchedUsers int
	filter       F
	open         map[int]struct{}
	epoch        uint64

	fetching        int
	downloadingJSON int
	downloadingCSV  int
}

// ViewOption configures a View
type ViewOption func(*viewOptions)

type viewOptions struct {
	minLoading time.Duration
	now        func() time.Time
}

// WithMinLoading keeps download flags raised for at least d
func WithMinLoading(d time.Duration) ViewOption {
	return func(o *viewOptions) { o.minLoading = d }
}

// WithClock overrides the clock used for export file names
func WithClock(now func() time.Time) ViewOption {
	return func(o *viewOptions) { o.now = now }
}

// NewView creates an empty view of kind; dates are interpreted in loc
func NewView[R any, F Filter](kind *Kind[R, F], loc *time.Location, opts ...ViewOption) *View[R, F] {
	o := viewOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &View[R, F]{
		kind:       kind,
		loc:        loc,
		minLoading: o.minLoading,
		now:        o.now,
		open:       make(map[int]struct{}),
	}
}

// Kind returns the descriptor of the view
func (v *View[R, F]) Kind() *Kind[R, F] {
	return v.kind
}

// Fetch loads the logs of users from the kind's endpoint, using the date
// window of the current filter. An empty selection is rejected before any
// request is made.
func (v *View[R, F]) Fetch(ctx context.Context, src Poster, creds backend.Credentials, users []string) (int, error) {
	if len(users) == 0 {
		return 0, ErrNoUsersSelected
	}

	v.mu.Lock()
	window := v.filter.Window()
	v.mu.Unlock()

	q := models.LogQuery{UserEmails: append([]string(nil), users...)}
	q.StartDate, q.EndDate = window.Query()

	return v.Load(ctx, len(users), func(ctx context.Context) ([]R, error) {
		var out []R
		err := src.PostJSON(ctx, creds, v.kind.Endpoint, q, &out)
		return out, err
	})
}

// Load replaces the collection with the result of fetch. On failure the
// collection is cleared. Results arriving after a Reset are dropped.
func (v *View[R, F]) Load(ctx context.Context, users int, fetch func(context.Context) ([]R, error)) (int, error) {
	v.mu.Lock()
	epoch := v.epoch
	v.fetching++
	v.mu.Unlock()

	records, err := fetch(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.fetching--

	if v.epoch != epoch {
		return 0, ErrStale
	}
	v.open = make(map[int]struct{})
	if err != nil {
		v.records = nil
		v.fetchedUsers = 0
		return 0, err
	}
	if records == nil {
		records = []R{}
	}
	v.records = records
	v.fetchedUsers = users
	return len(records), nil
}

// SetFilter replaces the filter after validating its dates
func (v *View[R, F]) SetFilter(f F) error {
	if err := f.Window().Validate(); err != nil {
		return err
	}
	v.mu.Lock()
	v.filter = f
	v.mu.Unlock()
	return nil
}

// ClearFilter resets every filter field
func (v *View[R, F]) ClearFilter() {
	var zero F
	v.mu.Lock()
	v.filter = zero
	v.mu.Unlock()
}

// Filter returns the current filter
func (v *View[R, F]) Filter() F {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Records returns the fetched collection, unfiltered
func (v *View[R, F]) Records() []R {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]R(nil), v.records...)
}

// Filtered returns the fetched records that pass the current filter
func (v *View[R, F]) Filtered() []R {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Apply(v.kind, v.records, v.filter, v.loc)
}

// Toggle opens or closes the detail of the record at index
func (v *View[R, F]) Toggle(index int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if index < 0 || index >= len(v.records) {
		return false, fmt.Errorf("%w: %d", ErrNoSuchRow, index)
	}
	if _, ok := v.open[index]; ok {
		delete(v.open, index)
		return false, nil
	}
	v.open[index] = struct{}{}
	return true, nil
}

// OpenRows lists the indices whose detail is open, ascending
func (v *View[R, F]) OpenRows() []int {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]int, 0, len(v.open))
	for i := range v.open {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Loading reports which operations are in flight
func (v *View[R, F]) Loading() Loading {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loadingLocked()
}

func (v *View[R, F]) loadingLocked() Loading {
	return Loading{
		Fetching:        v.fetching > 0,
		DownloadingJSON: v.downloadingJSON > 0,
		DownloadingCSV:  v.downloadingCSV > 0,
	}
}

// Snapshot renders the view
func (v *View[R, F]) Snapshot() Snapshot[R, F] {
	v.mu.Lock()
	defer v.mu.Unlock()

	rows := make([]Row[R], 0, len(v.records))
	for i, r := range v.records {
		if !v.kind.matches(r, v.filter, v.loc) {
			continue
		}
		_, open := v.open[i]
		rows = append(rows, Row[R]{Index: i, Open: open, Record: r})
	}
	return Snapshot[R, F]{
		Kind:         v.kind.Name,
		Total:        len(v.records),
		Shown:        len(rows),
		FetchedUsers: v.fetchedUsers,
		Filter:       v.filter,
		Loading:      v.loadingLocked(),
		Rows:         rows,
	}
}

// ExportJSON serializes the whole fetched collection with two-space
// indentation. An empty collection exports as [].
func (v *View[R, F]) ExportJSON() (Export, error) {
	records := v.Records()
	if records == nil {
		records = []R{}
	}

	release := v.hold(&v.downloadingJSON)
	defer release()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return Export{}, fmt.Errorf("failed to encode logs: %w", err)
	}
	return Export{
		Filename:    v.filename("json"),
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// ExportCSV serializes the filtered records. Every field is quoted as
// needed, so commas, quotes and newlines survive.
func (v *View[R, F]) ExportCSV() (Export, error) {
	records := v.Filtered()
	if len(records) == 0 {
		return Export{}, ErrNothingToExport
	}

	release := v.hold(&v.downloadingCSV)
	defer release()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(v.kind.Header); err != nil {
		return Export{}, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(v.kind.Row(r, v.loc)); err != nil {
			return Export{}, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Export{}, fmt.Errorf("failed to write csv: %w", err)
	}

	return Export{
		Filename:    v.filename("csv"),
		ContentType: "text/csv",
		Data:        buf.Bytes(),
	}, nil
}

// Reset forgets everything and invalidates in-flight fetches
func (v *View[R, F]) Reset() {
	var zero F
	v.mu.Lock()
	defer v.mu.Unlock()
	v.epoch++
	v.records = nil
	v.fetchedUsers = 0
	v.filter = zero
	v.open = make(map[int]struct{})
}

// hold raises a download flag; the returned release lowers it no sooner
// than minLoading after it was raised.
func (v *View[R, F]) hold(counter *int) func() {
	v.mu.Lock()
	*counter++
	v.mu.Unlock()

	lower := func() {
		v.mu.Lock()
		*counter--
		v.mu.Unlock()
	}
	started := time.Now()
	return func() {
		remaining := v.minLoading - time.Since(started)
		if remaining <= 0 {
			lower()
			return
		}
		time.AfterFunc(remaining, lower)
	}
}

func (v *View[R, F]) filename(ext string) string {
	return fmt.Sprintf("%s_%s.%s", v.kind.FilePrefix, v.now().UTC().Format(DateLayout), ext)
}
