package control

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/xyscope/host"
	"github.com/peragwin/xyscope/scope"
)

func newLoop(t *testing.T) *host.Loop {
	t.Helper()
	s, err := scope.New(scope.SurfaceHost{S: scope.NopSurface{}}, nil)
	require.NoError(t, err)
	l := host.NewLoop(s)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

type result struct {
	Data struct {
		Params *scope.Parameters `json:"params"`
		Status *scope.Stats      `json:"status"`
		Toggle string            `json:"toggleMode"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func decode(t *testing.T, res interface{}) result {
	t.Helper()
	bs, err := json.Marshal(res)
	require.NoError(t, err)
	var r result
	require.NoError(t, json.Unmarshal(bs, &r))
	return r
}

func query(t *testing.T, a *API, q string) result {
	t.Helper()
	return decode(t, a.Query(context.Background(), q, nil))
}

func TestQueryParams(t *testing.T) {
	a, err := NewAPI(newLoop(t))
	require.NoError(t, err)

	r := query(t, a, `{ params { durationMs fade traceColor graticule } }`)
	require.Empty(t, r.Errors)
	require.NotNil(t, r.Data.Params)
	assert.Equal(t, 31, r.Data.Params.DurationMs)
	assert.Equal(t, 128, r.Data.Params.Fade)
	assert.Equal(t, "#7cfc03", r.Data.Params.TraceColor)
	assert.False(t, r.Data.Params.Graticule)
}

func TestMutateParams(t *testing.T) {
	l := newLoop(t)
	a, err := NewAPI(l)
	require.NoError(t, err)

	r := query(t, a, `mutation { params(params: {fade: 64, graticule: true}) { fade graticule durationMs } }`)
	require.Empty(t, r.Errors)
	assert.Equal(t, 64, r.Data.Params.Fade)
	assert.True(t, r.Data.Params.Graticule)
	assert.Equal(t, 31, r.Data.Params.DurationMs)

	p, err := l.Parameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, p.Fade)

	r = query(t, a, `mutation { params(params: {durationMs: 100}) { durationMs } }`)
	require.Empty(t, r.Errors)
	st, err := l.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4410, st.Capacity)
}

func TestMutateParamsRejected(t *testing.T) {
	l := newLoop(t)
	a, err := NewAPI(l)
	require.NoError(t, err)

	r := query(t, a, `mutation { params(params: {fade: 999}) { fade } }`)
	assert.NotEmpty(t, r.Errors)

	r = query(t, a, `mutation { params(params: {traceColor: "mauve"}) { fade } }`)
	assert.NotEmpty(t, r.Errors)

	p, err := l.Parameters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *scope.DefaultParameters(), p)
}

func TestStatusAndToggle(t *testing.T) {
	a, err := NewAPI(newLoop(t))
	require.NoError(t, err)

	r := query(t, a, `{ status { mode sampleRate capacity blocks } }`)
	require.Empty(t, r.Errors)
	assert.Equal(t, "xy", r.Data.Status.Mode)
	assert.Equal(t, 44100, r.Data.Status.SampleRate)
	assert.Equal(t, 1367, r.Data.Status.Capacity)

	r = query(t, a, `mutation { toggleMode }`)
	require.Empty(t, r.Errors)
	assert.Equal(t, "waveform", r.Data.Toggle)
}

func TestNewGraphqlTypeFields(t *testing.T) {
	obj, in := NewGraphqlInputType("P", &scope.Parameters{})
	fields := obj.Fields()
	for _, name := range []string{"durationMs", "fade", "traceColor", "waveColor", "axisColor", "graticule", "debug"} {
		assert.Contains(t, fields, name)
		assert.Contains(t, in.Fields(), name)
	}
	assert.Equal(t, graphql.Int, fields["fade"].Type)

	st := NewGraphqlType("S", &scope.Stats{})
	assert.Equal(t, graphql.Float, st.Fields()["pointAlpha"].Type)
	assert.Equal(t, graphql.Int, st.Fields()["blocks"].Type)
}

func TestApplyArgs(t *testing.T) {
	p := scope.DefaultParameters()
	require.NoError(t, applyArgs(p, map[string]interface{}{"fade": 3, "graticule": true, "axisColor": nil}))
	assert.Equal(t, 3, p.Fade)
	assert.True(t, p.Graticule)
	assert.Equal(t, "#284028", p.AxisColor)

	assert.Error(t, applyArgs(p, map[string]interface{}{"nope": 1}))
	assert.Error(t, applyArgs(p, map[string]interface{}{"fade": "lots"}))
}

func newServer(t *testing.T, l *host.Loop) (*Server, *httptest.Server) {
	t.Helper()
	a, err := NewAPI(l)
	require.NoError(t, err)
	s := &Server{API: a, Hub: NewHub(l.Stats), StatusPeriod: 10 * time.Millisecond}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestHTTPv1(t *testing.T) {
	_, ts := newServer(t, newLoop(t))

	resp, err := http.Get(ts.URL + "/api/v1/graphql?query=" + url.QueryEscape(`{ params { fade } }`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var r result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, 128, r.Data.Params.Fade)
}

func TestHTTPv2Variables(t *testing.T) {
	_, ts := newServer(t, newLoop(t))

	body, err := json.Marshal(map[string]interface{}{
		"query":     `mutation ($p: inputParamType) { params(params: $p) { durationMs } }`,
		"variables": map[string]interface{}{"p": map[string]interface{}{"durationMs": 100}},
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/v2/graphql", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var r result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	require.Empty(t, r.Errors)
	assert.Equal(t, 100, r.Data.Params.DurationMs)
}

func TestHTTPv2BadBody(t *testing.T) {
	_, ts := newServer(t, newLoop(t))
	resp, err := http.Post(ts.URL+"/api/v2/graphql", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
