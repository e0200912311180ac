package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/grip.monitor/internal/cache"
	"github.com/banshee-data/grip.monitor/internal/db"
	"github.com/banshee-data/grip.monitor/internal/fsutil"
	"github.com/banshee-data/grip.monitor/internal/monitoring"
	"github.com/banshee-data/grip.monitor/internal/packets"
	"github.com/banshee-data/grip.monitor/internal/telemetry"
	"github.com/banshee-data/grip.monitor/internal/testutil"
	"github.com/banshee-data/grip.monitor/internal/timeutil"
	"github.com/banshee-data/grip.monitor/internal/vectors"
	"github.com/banshee-data/grip.monitor/internal/version"
)

const root = "/caches"

type fixture struct {
	server *Server
	rt     *cache.RealtimeIngester
	hk     *cache.HousekeepingIngester
	fs     *fsutil.MemoryFileSystem
	db     *db.DB
}

func newFixture(t *testing.T, withDB bool) *fixture {
	t.Helper()

	mfs := fsutil.NewMemoryFileSystem()
	opts := cache.Options{
		Root:           root,
		MaxOpenRetries: 1,
		FS:             mfs,
		Clock:          timeutil.NewMockClock(time.Date(2014, 7, 1, 0, 0, 0, 0, time.UTC)),
	}
	dopts := telemetry.DefaultOptions()
	dopts.MaxFrames = 1000

	f := &fixture{
		rt: cache.NewRealtimeIngester(opts, telemetry.NewDecoder(dopts)),
		hk: cache.NewHousekeepingIngester(opts),
		fs: mfs,
	}
	if withDB {
		database, err := db.NewDB(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		f.db = database
	}
	f.server = NewServer(f.rt, f.hk, f.db)
	return f
}

// ingestTwoPackets leaves 10 placeholders followed by 20 decoded frames.
func (f *fixture) ingestTwoPackets(t *testing.T) {
	t.Helper()
	require.NoError(t, f.fs.Append(packets.CacheFilename(root, packets.RealtimeScience), testutil.Concat(
		testutil.RealtimeRecord(t, 1, testutil.SteadyPacket(1000, vectors.Vector3{1, 2, 3}, 2)),
		testutil.RealtimeRecord(t, 2, testutil.SteadyPacket(1000.5, vectors.Vector3{1, 2, 3}, 2)),
	)))
	res, err := f.rt.Ingest()
	require.NoError(t, err)
	require.Equal(t, 30, res.FramesAppended)
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.ServeRequest(f.server.ServeMux(), http.MethodGet, path)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestStatus(t *testing.T) {
	f := newFixture(t, false)
	f.ingestTwoPackets(t)

	rec := f.get(t, "/api/status")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var st StatusResponse
	decode(t, rec, &st)
	assert.Equal(t, version.String(), st.Version)
	assert.Equal(t, f.rt.Decoder().SessionID(), st.SessionID)
	assert.Equal(t, "streaming", st.State)
	assert.Equal(t, 30, st.Frames)
	assert.Equal(t, 1000, st.Capacity)
	assert.Equal(t, packets.CacheFilename(root, packets.RealtimeScience), st.RealtimeCache)
	assert.Equal(t, int64(2*packets.RealtimeScience.RecordLength()), st.RealtimeOffset)
	assert.Equal(t, packets.CacheFilename(root, packets.Housekeeping), st.HousekeepingCache)
	for _, v := range st.MarkerVisibility {
		assert.Equal(t, "uuuuuuuu  uuuu  uuuuuuuu", v)
	}
	assert.GreaterOrEqual(t, st.Metrics[monitoring.MetricRealtimePacketsRead], int64(2))
}

func TestFrames(t *testing.T) {
	f := newFixture(t, false)
	f.ingestTwoPackets(t)

	t.Run("page", func(t *testing.T) {
		rec := f.get(t, "/api/frames?from=8&limit=4")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var page FramesResponse
		decode(t, rec, &page)
		assert.Equal(t, 8, page.From)
		assert.Equal(t, 30, page.Total)
		require.Len(t, page.Frames, 4)
		assert.True(t, page.Frames[0].IsPlaceholder())
		assert.True(t, page.Frames[1].IsPlaceholder())
		assert.False(t, page.Frames[2].IsPlaceholder())
		assert.Equal(t, telemetry.PacketReceivedCode, page.Frames[2].PacketReceived)
		assert.InDelta(t, 1000.0, page.Frames[2].PoseTime, 1e-6)
	})

	t.Run("latest by default", func(t *testing.T) {
		rec := f.get(t, "/api/frames?limit=5")
		var page FramesResponse
		decode(t, rec, &page)
		assert.Equal(t, 25, page.From)
		assert.Len(t, page.Frames, 5)
	})

	t.Run("past the end", func(t *testing.T) {
		rec := f.get(t, "/api/frames?from=100")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		var page FramesResponse
		decode(t, rec, &page)
		assert.NotNil(t, page.Frames)
		assert.Empty(t, page.Frames)
	})

	for _, path := range []string{"/api/frames?from=abc", "/api/frames?from=-1", "/api/frames?limit=0"} {
		rec := f.get(t, path)
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	}

	rec := testutil.ServeRequest(f.server.ServeMux(), http.MethodPost, "/api/frames")
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestHousekeeping(t *testing.T) {
	f := newFixture(t, true)

	var empty HousekeepingResponse
	decode(t, f.get(t, "/api/housekeeping"), &empty)
	assert.False(t, empty.Valid)
	assert.Nil(t, empty.Status)

	hk := packets.HealthStatus{User: 7, Protocol: 100, Task: 3, ToneFeedback: 4, CradleDetectors: 0x24}
	require.NoError(t, f.fs.Append(packets.CacheFilename(root, packets.Housekeeping), testutil.HousekeepingRecord(t, 9, hk)))
	res, err := f.hk.Ingest()
	require.NoError(t, err)
	require.True(t, res.NewData)
	require.NoError(t, f.db.RecordHousekeeping(f.rt.Decoder().SessionID(), res.Latest.Header, res.Latest.Status))

	rec := f.get(t, "/api/housekeeping")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var resp HousekeepingResponse
	decode(t, rec, &resp)
	require.True(t, resp.Valid)
	assert.Equal(t, uint16(9), resp.TMCounter)
	require.NotNil(t, resp.Status)
	assert.Equal(t, uint16(7), resp.Status.User)
	assert.Equal(t, "||||...........", resp.Status.Tone)
	assert.Equal(t, [3]string{"-", "o", "x"}, resp.Status.Cradles)
	require.Len(t, resp.History, 1)
	assert.Equal(t, uint16(3), resp.History[0].Task)
}

func TestPasses(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		f := newFixture(t, false)
		testutil.AssertStatusCode(t, f.get(t, "/api/passes").Code, http.StatusNotFound)
	})

	t.Run("recorded", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.db.RecordIngestPass(db.IngestPass{
			SessionID:      "s1",
			Kind:           packets.RealtimeScience.String(),
			StartedAt:      time.Date(2014, 7, 1, 12, 0, 0, 0, time.UTC),
			RecordsRead:    2,
			FramesAppended: 30,
			NewData:        true,
		}))

		rec := f.get(t, "/api/passes?limit=10")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		var passes []db.IngestPass
		decode(t, rec, &passes)
		require.Len(t, passes, 1)
		assert.Equal(t, 30, passes[0].FramesAppended)
		assert.True(t, passes[0].NewData)
	})
}

func TestReset(t *testing.T) {
	f := newFixture(t, false)
	f.ingestTwoPackets(t)
	before := f.rt.Decoder().SessionID()

	testutil.AssertStatusCode(t, f.get(t, "/api/reset").Code, http.StatusMethodNotAllowed)

	rec := testutil.ServeRequest(f.server.ServeMux(), http.MethodPost, "/api/reset")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp map[string]string
	decode(t, rec, &resp)
	assert.Equal(t, before, resp["previous_session_id"])
	assert.NotEqual(t, before, resp["session_id"])
	assert.Equal(t, 0, f.rt.Decoder().Buffer().Len())
	assert.Equal(t, int64(0), f.rt.Offset())

	// The next pass rereads the cache from the start.
	res, err := f.rt.Ingest()
	require.NoError(t, err)
	assert.Equal(t, 2, res.RecordsRead)
}

func TestForceChart(t *testing.T) {
	f := newFixture(t, false)
	f.ingestTwoPackets(t)

	rec := f.get(t, "/charts/forces?last=30")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Grip and Load Force")
	assert.Contains(t, body, "normal left")
	assert.True(t, strings.Contains(body, `"-"`), "placeholders should render as gaps")

	testutil.AssertStatusCode(t, f.get(t, "/charts/forces?last=x").Code, http.StatusBadRequest)
}

func TestLoggingMiddleware(t *testing.T) {
	var logged bool
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logged = true
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := testutil.ServeRequest(h, http.MethodGet, "/api/status")
	assert.True(t, logged)
	testutil.AssertStatusCode(t, rec.Code, http.StatusTeapot)
	assert.Contains(t, statusCodeColor(http.StatusTeapot), "418")
}

func TestClient(t *testing.T) {
	f := newFixture(t, false)
	f.ingestTwoPackets(t)
	srv := httptest.NewServer(f.server.ServeMux())
	defer srv.Close()

	c := NewClient(srv.URL+"/", srv.Client())
	ctx := context.Background()

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Frames)

	frames, err := c.AllFrames(ctx)
	require.NoError(t, err)
	require.Len(t, frames, 30)
	assert.True(t, frames[0].IsPlaceholder())
	assert.False(t, frames[29].IsPlaceholder())

	session, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.rt.Decoder().SessionID(), session)
	assert.NotEqual(t, st.SessionID, session)
}
