package dag

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/quarrydb/quarry/cache"
	"github.com/quarrydb/quarry/chunk"
	"github.com/quarrydb/quarry/common"
	"github.com/quarrydb/quarry/conf"
	"github.com/quarrydb/quarry/errors"
	"github.com/quarrydb/quarry/exec"
	"github.com/quarrydb/quarry/execctx"
	"github.com/quarrydb/quarry/failinject"
	"github.com/quarrydb/quarry/metrics"
	"github.com/quarrydb/quarry/plan"
	"github.com/quarrydb/quarry/storage"
)

// MaxCachedResultSize is the largest serialized response the engine will put in the result
// cache. Bigger results are still returned, just never cached.
const MaxCachedResultSize = 5 * 1024 * 1024

const (
	outcomeOK     = "ok"
	outcomeError  = "error"
	outcomeCached = "cached"
)

var (
	requestsVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quarry_select_requests_total",
		Help: "counter for number of select requests handled, segmented by outcome",
	}, []string{"outcome"})
	requestTimeHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "quarry_select_request_time_nanos",
		Help: "histogram measuring time to handle select requests in nanoseconds",
	})
	rowsScannedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_rows_scanned_total",
		Help: "counter for number of rows scanned from storage by select requests",
	})
	rowsReturnedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_rows_returned_total",
		Help: "counter for number of rows returned to callers by select requests",
	})
	warningsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quarry_select_warnings_total",
		Help: "counter for number of warnings raised while evaluating select requests",
	})
)

// Engine runs pushed down select requests against local storage. It owns nothing long
// lived besides the cache - every request builds its own executor chain over a fresh
// snapshot.
type Engine struct {
	lock                 sync.RWMutex
	started              bool
	cnf                  conf.Config
	store                storage.Provider
	resultCache          cache.ResultCache
	injector             failinject.Injector
	requestTimeHistogram metrics.Observer
	rowsScannedCounter   metrics.Counter
	rowsReturnedCounter  metrics.Counter
}

// NewEngine creates an engine. resultCache may be nil, in which case no request is ever
// served from or stored to the cache.
func NewEngine(cnf conf.Config, store storage.Provider, resultCache cache.ResultCache,
	injector failinject.Injector) *Engine {
	return &Engine{
		cnf:                  cnf,
		store:                store,
		resultCache:          resultCache,
		injector:             injector,
		requestTimeHistogram: requestTimeHistogram,
		rowsScannedCounter:   rowsScannedCounter,
		rowsReturnedCounter:  rowsReturnedCounter,
	}
}

func (e *Engine) Start() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.started {
		return nil
	}
	e.started = true
	return nil
}

func (e *Engine) Stop() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	if !e.started {
		return nil
	}
	e.started = false
	return nil
}

// HandleSelect runs one request and returns the serialized SelectResponse. Evaluation
// failures ride inside the response - the returned error is reserved for infrastructure
// failures where no meaningful response exists.
func (e *Engine) HandleSelect(req *Request) ([]byte, error) {
	start := time.Now()
	defer func() {
		e.requestTimeHistogram.Observe(float64(time.Since(start).Nanoseconds()))
	}()

	if err := req.Plan.Validate(); err != nil {
		return e.failed(nil, err)
	}
	config, err := execctx.NewEvalConfig(req.Plan.Flags, req.Plan.TZOffsetSecs)
	if err != nil {
		return e.failed(nil, err)
	}
	ectx := execctx.NewEvalContext(config)

	// Only aggregation and top-n results are worth caching - a plain scan is no cheaper to
	// serve from the cache than from storage.
	canCache := req.CacheEnabled && e.resultCache != nil &&
		(req.Plan.HasAggregation() || req.Plan.HasTopN())
	var cacheKey string
	var cacheVersion uint64
	if canCache {
		cacheKey, err = cacheKeyFor(req)
		if err != nil {
			return e.failed(ectx, err)
		}
		// The version is captured before execution. If a write lands while we execute, the
		// version we store with will already be stale and the entry self invalidates.
		cacheVersion = e.resultCache.GetRegionVersion(req.RegionID)
		if data, ok := e.resultCache.Lookup(req.RegionID, cacheKey); ok {
			requestsVec.WithLabelValues(outcomeCached).Inc()
			return data, nil
		}
	}

	snapshot, err := e.store.CreateSnapshot(req.RegionID)
	if err != nil {
		return e.failed(ectx, err)
	}
	defer func() {
		if err := snapshot.Close(); err != nil {
			log.Errorf("failed to close snapshot %+v", err)
		}
	}()

	if err := e.injector.GetFailpoint("read_request_1").CheckFail(); err != nil {
		return e.failed(ectx, err)
	}

	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(e.cnf.RequestTimeout)
	}
	reqCtx := NewRequestContext(req.RegionID, deadline, snapshot.RegionVersion(), e.store)

	builder := newResultBuilder(e.batchRowLimit(req))
	stats := &exec.Statistics{}
	if req.Plan.Batchable() {
		err = e.runBatchChain(req, snapshot, ectx, reqCtx, builder, stats)
	} else {
		err = e.runRowChain(req, snapshot, ectx, reqCtx, builder, stats)
	}
	if err != nil {
		return e.failed(ectx, err)
	}

	e.rowsScannedCounter.Add(float64(stats.ScannedRows))
	e.rowsReturnedCounter.Add(float64(builder.rowCount))

	resp := &SelectResponse{Chunks: builder.finish()}
	resp.Warnings, resp.WarningCount = takeWarnings(ectx)
	warningsCounter.Add(float64(resp.WarningCount))
	data, err := resp.Serialize(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if canCache && len(data) <= MaxCachedResultSize {
		if err := e.injector.GetFailpoint("cache_store_1").CheckFail(); err != nil {
			log.Warnf("not caching result %+v", err)
		} else {
			e.resultCache.Store(req.RegionID, cacheKey, cacheVersion, data)
		}
	}
	requestsVec.WithLabelValues(outcomeOK).Inc()
	return data, nil
}

func (e *Engine) runRowChain(req *Request, snapshot storage.Snapshot, ectx *execctx.EvalContext,
	reqCtx *RequestContext, builder *resultBuilder, stats *exec.Statistics) error {
	executor, err := exec.Build(snapshot, req.Ranges, req.Plan, ectx)
	if err != nil {
		return err
	}
	defer func() {
		if err := executor.Close(); err != nil {
			log.Errorf("failed to close executor %+v", err)
		}
	}()
	// Aggregation rows arrive already encoded in their own shape, so the offsets only apply
	// to plans whose rows still need inflating.
	var outputCols []*common.ColumnInfo
	if !req.Plan.HasAggregation() {
		schema := executor.Schema()
		offsets, err := resolveOutputOffsets(len(schema), req.Plan.OutputOffsets)
		if err != nil {
			return err
		}
		outputCols = make([]*common.ColumnInfo, len(offsets))
		for i, idx := range offsets {
			outputCols[i] = schema[idx]
		}
	}
	var buff []byte
	for {
		if err := reqCtx.CheckIfOutdated(); err != nil {
			return err
		}
		row, err := executor.Next()
		if err != nil {
			return err
		}
		if row == nil {
			break
		}
		if row.Encoded != nil {
			builder.appendRow(row.Encoded)
			continue
		}
		buff = buff[:0]
		for _, col := range outputCols {
			buff, err = exec.AppendColumnValue(buff, col, row.Handle, row.Data)
			if err != nil {
				return err
			}
		}
		builder.appendRow(buff)
	}
	if collector, ok := executor.(exec.StatisticsCollector); ok {
		collector.CollectStatistics(stats)
	}
	return nil
}

func (e *Engine) runBatchChain(req *Request, snapshot storage.Snapshot, ectx *execctx.EvalContext,
	reqCtx *RequestContext, builder *resultBuilder, stats *exec.Statistics) error {
	executor, err := exec.BuildBatch(snapshot, req.Ranges, req.Plan, ectx)
	if err != nil {
		return err
	}
	defer func() {
		if err := executor.Close(); err != nil {
			log.Errorf("failed to close batch executor %+v", err)
		}
	}()
	cols := req.Plan.Executors[0].TableScan.Table.Columns
	offsets, err := resolveOutputOffsets(len(cols), req.Plan.OutputOffsets)
	if err != nil {
		return err
	}
	var buff []byte
	for {
		if err := reqCtx.CheckIfOutdated(); err != nil {
			return err
		}
		batch, err := executor.NextBatch(builder.limit)
		if err != nil {
			return err
		}
		it := chunk.NewIterator(batch.Chunk)
		for row := it.Begin(); row != it.End(); row = it.Next() {
			buff = buff[:0]
			for _, idx := range offsets {
				datum, err := row.GetDatum(idx, cols[idx].ColumnType)
				if err != nil {
					return err
				}
				buff, err = common.EncodeDatum(buff, datum)
				if err != nil {
					return err
				}
			}
			builder.appendRow(buff)
		}
		if batch.Drained {
			break
		}
	}
	executor.CollectStatistics(stats)
	return nil
}

// failed ends a request. Business errors become the response error and the call still
// succeeds at the transport level. Anything else fails the call.
func (e *Engine) failed(ectx *execctx.EvalContext, err error) ([]byte, error) {
	var qerr errors.QuarryError
	if !errors.As(err, &qerr) {
		return nil, errors.WithStack(err)
	}
	requestsVec.WithLabelValues(outcomeError).Inc()
	resp := &SelectResponse{Error: &SelectError{Code: int(qerr.Code), Msg: qerr.Msg}}
	if ectx != nil {
		resp.Warnings, resp.WarningCount = takeWarnings(ectx)
	}
	data, serr := resp.Serialize(nil)
	if serr != nil {
		return nil, errors.WithStack(serr)
	}
	return data, nil
}

func (e *Engine) batchRowLimit(req *Request) int {
	if req.BatchRowLimit > 0 {
		return req.BatchRowLimit
	}
	if e.cnf.BatchRowLimit > 0 {
		return e.cnf.BatchRowLimit
	}
	return conf.DefaultBatchRowLimit
}

// cacheKeyFor builds the cache key: the serialized ranges then the serialized plan. Two
// requests share a result only when both match byte for byte.
func cacheKeyFor(req *Request) (string, error) {
	buff := plan.SerializeKeyRanges(req.Ranges, nil)
	buff, err := req.Plan.Serialize(buff)
	if err != nil {
		return "", err
	}
	return string(buff), nil
}

func resolveOutputOffsets(numCols int, offsets []uint32) ([]int, error) {
	if len(offsets) == 0 {
		resolved := make([]int, numCols)
		for i := range resolved {
			resolved[i] = i
		}
		return resolved, nil
	}
	resolved := make([]int, len(offsets))
	for i, offset := range offsets {
		if int(offset) >= numCols {
			return nil, errors.NewInvalidPlanError(fmt.Sprintf("output offset %d out of range", offset))
		}
		resolved[i] = int(offset)
	}
	return resolved, nil
}

func takeWarnings(ectx *execctx.EvalContext) ([]*SelectError, int) {
	warnings, count := ectx.TakeWarnings()
	if len(warnings) == 0 {
		return nil, int(count)
	}
	selErrs := make([]*SelectError, len(warnings))
	for i, warning := range warnings {
		selErrs[i] = &SelectError{Code: int(warning.Code), Msg: warning.Msg}
	}
	return selErrs, int(count)
}

// resultBuilder packs encoded rows into ResultChunks of at most limit rows each.
type resultBuilder struct {
	limit    int
	chunks   []ResultChunk
	cur      ResultChunk
	rowCount int
}

func newResultBuilder(limit int) *resultBuilder {
	return &resultBuilder{limit: limit}
}

func (b *resultBuilder) appendRow(encoded []byte) {
	b.cur.RowsData = append(b.cur.RowsData, encoded...)
	b.cur.NumRows++
	b.rowCount++
	if int(b.cur.NumRows) >= b.limit {
		b.chunks = append(b.chunks, b.cur)
		b.cur = ResultChunk{}
	}
}

func (b *resultBuilder) finish() []ResultChunk {
	if b.cur.NumRows > 0 {
		b.chunks = append(b.chunks, b.cur)
		b.cur = ResultChunk{}
	}
	return b.chunks
}
