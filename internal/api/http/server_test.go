package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/coprocessor/internal/api/http/handlers"
	apitypes "github.com/weisyn/coprocessor/internal/api/http/types"
	apiconfig "github.com/weisyn/coprocessor/internal/config/api"
	"github.com/weisyn/coprocessor/internal/core/jobs"
	"github.com/weisyn/coprocessor/internal/core/pipeline"
	"github.com/weisyn/coprocessor/internal/testutil"
	"github.com/weisyn/coprocessor/pkg/types"
)

type fakeJobs struct {
	jobID   uint8
	payload []byte
	out     []byte
	err     error
}

func (f *fakeJobs) Handle(_ context.Context, jobID uint8, payload []byte) ([]byte, error) {
	f.jobID = jobID
	f.payload = payload
	return f.out, f.err
}

type fakeResolver struct {
	records map[types.ProgramHash]types.ProgramRecord
}

func (r *fakeResolver) Resolve(_ context.Context, hash types.ProgramHash) (types.ProgramRecord, error) {
	rec, ok := r.records[hash]
	if !ok {
		return types.ProgramRecord{}, types.ErrNotFound
	}
	return rec, nil
}

func (r *fakeResolver) List(context.Context) ([]types.ProgramRecord, error) {
	out := make([]types.ProgramRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func newTestServer(t *testing.T, runner handlers.JobRunner, resolver *fakeResolver) *Server {
	t.Helper()
	options := apiconfig.New(nil).GetOptions().HTTP
	options.MaxBodySize = 1024
	return NewServer(options, Handlers{
		Jobs:     handlers.NewJobHandlers(runner, testutil.NewTestLogger()),
		Programs: handlers.NewProgramHandlers(resolver, resolver),
		Health:   handlers.NewHealthHandler("local", nil),
	}, testutil.NewTestLogger())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_JobRoutes(t *testing.T) {
	runner := &fakeJobs{out: []byte(`{"proving_type":"Fast"}`)}
	s := newTestServer(t, runner, &fakeResolver{})

	rec := do(t, s, http.MethodPost, "/api/v1/jobs/1", `{"program_hash":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"proving_type":"Fast"}`, rec.Body.String())
	assert.Equal(t, jobs.JobGenerateProof, runner.jobID)
	assert.Equal(t, `{"program_hash":"x"}`, string(runner.payload))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, s, http.MethodPost, "/api/v1/coprocessor/proofs", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobs.JobCoprocessorProof, runner.jobID)

	rec = do(t, s, http.MethodPost, "/api/v1/proofs", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jobs.JobGenerateProof, runner.jobID)

	rec = do(t, s, http.MethodPost, "/api/v1/jobs/300", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/proofs", strings.Repeat("x", 2048))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestServer_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		stage  string
	}{
		{&pipeline.Error{Stage: pipeline.StageResolve, Kind: types.KindNotFound, Err: types.ErrNotFound}, http.StatusNotFound, "resolve"},
		{&pipeline.Error{Stage: pipeline.StageVerify, Kind: types.KindHashMismatch, Err: types.ErrHashMismatch}, http.StatusUnprocessableEntity, "verify"},
		{&pipeline.Error{Stage: pipeline.StageFetch, Kind: types.KindFetchFailed, Err: types.ErrFetchFailed}, http.StatusBadGateway, "fetch"},
		{&pipeline.Error{Stage: pipeline.StageExecute, Kind: types.KindTimeout, Err: types.ErrTimeout}, http.StatusGatewayTimeout, "execute"},
		{&pipeline.Error{Stage: pipeline.StageExecute, Kind: types.KindProvingFailed, Err: types.ErrProvingFailed}, http.StatusInternalServerError, "execute"},
		{types.ErrInvalidRequest, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(string(types.KindOf(tt.err)), func(t *testing.T) {
			s := newTestServer(t, &fakeJobs{err: jobs.NewJobError("job-1", tt.err)}, &fakeResolver{})
			rec := do(t, s, http.MethodPost, "/api/v1/proofs", `{}`)
			assert.Equal(t, tt.status, rec.Code)

			var resp apitypes.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, types.KindOf(tt.err), resp.Error.Kind)
			assert.Equal(t, tt.stage, resp.Error.Stage)
			assert.Equal(t, "job-1", resp.Error.JobID)
			assert.Equal(t, types.Retryable(tt.err), resp.Error.Retryable)
		})
	}
}

func TestServer_Programs(t *testing.T) {
	h := testutil.HashOf([]byte("program"))
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	resolver := &fakeResolver{records: map[types.ProgramHash]types.ProgramRecord{
		h: {Hash: h, Location: "ipfs://Qm1", Owner: owner},
	}}
	s := newTestServer(t, &fakeJobs{}, resolver)

	rec := do(t, s, http.MethodGet, "/api/v1/programs/"+h.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var prog apitypes.ProgramResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, "ipfs://Qm1", prog.Location)
	assert.Equal(t, owner.Hex(), prog.Owner)

	rec = do(t, s, http.MethodGet, "/api/v1/programs/"+testutil.HashOf([]byte("other")).Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/programs/0x12", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/programs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ipfs://Qm1")
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, &fakeJobs{out: []byte(`{}`)}, &fakeResolver{})
	// 产生一条请求指标
	do(t, s, http.MethodPost, "/api/v1/proofs", `{}`)

	rec := do(t, s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health apitypes.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "local", health.RegistryMode)

	rec = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coprocessor_api_requests_total")
}

func TestServer_StartStop(t *testing.T) {
	options := apiconfig.New(nil).GetOptions().HTTP
	options.Port = 0
	s := NewServer(options, Handlers{}, nil)
	require.NoError(t, s.Start())
	addr := s.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))
}

func TestStatusForKind_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, handlers.StatusForKind(types.KindUnknown))
	assert.Equal(t, handlers.StatusClientClosedRequest, handlers.StatusForKind(types.KindCancelled))
}
