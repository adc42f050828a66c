package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/capture"
	"github.com/ayusman/formcheck/internal/detector"
	"github.com/ayusman/formcheck/internal/metrics"
	"github.com/ayusman/formcheck/internal/server"
	"github.com/ayusman/formcheck/internal/store"
)

type feedback struct {
	Result struct {
		Exercise string `json:"exercise"`
		Joints   []struct {
			Joint string  `json:"joint"`
			Angle float64 `json:"angle"`
			State string  `json:"state"`
			Color string  `json:"color"`
		} `json:"joints"`
		Progress  float64 `json:"progress"`
		IsCorrect bool    `json:"isCorrect"`
	} `json:"result"`
	Timestamp int64 `json:"timestamp"`
}

func put(t *testing.T, client *http.Client, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func TestE2E_LiveSquatSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	s, err := store.New(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer s.Close()

	m, reg := metrics.NewTestManagerAndRegistry()

	det := detector.NewMockDetector()
	det.SetLandmarks(detector.SquatBottomPose())

	a := app.New(app.Config{
		Store:     s,
		Metrics:   m,
		Camera:    capture.NewBlankMockCamera(160, 120),
		Detector:  det,
		RenderFPS: 60,
	})
	defer a.Close()

	ts := httptest.NewServer(server.New(server.Config{Store: s, App: a, Metrics: m, Gatherer: reg}))
	defer ts.Close()
	client := ts.Client()

	resp := put(t, client, ts.URL+"/api/selection", `{"exercise":"squat"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	conn, wsResp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/feedback", nil)
	require.NoError(t, err)
	wsResp.Body.Close()
	defer conn.Close()

	resp = put(t, client, ts.URL+"/api/tracking", `{"enabled":true,"running":true}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("feedback", func(t *testing.T) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))

		var msg feedback
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "squat", msg.Result.Exercise)
		require.Len(t, msg.Result.Joints, 4)
		for _, j := range msg.Result.Joints {
			assert.NotEmpty(t, j.State, j.Joint)
			assert.True(t, strings.HasPrefix(j.Color, "#"), j.Joint)
		}
		assert.NotZero(t, msg.Timestamp)
	})

	t.Run("stream", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/stream")
		require.NoError(t, err)
		defer resp.Body.Close()

		_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		require.NoError(t, err)

		part, err := multipart.NewReader(resp.Body, params["boundary"]).NextPart()
		require.NoError(t, err)

		head := make([]byte, 2)
		_, err = io.ReadFull(part, head)
		require.NoError(t, err)
		assert.Equal(t, []byte{0xFF, 0xD8}, head, "JPEG magic")
	})

	resp = put(t, client, ts.URL+"/api/tracking", `{"running":false}`)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	t.Run("session saved", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		require.NoError(t, err)
		defer resp.Body.Close()

		var listed struct {
			Sessions []store.Session `json:"sessions"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
		require.Len(t, listed.Sessions, 1)

		sess := listed.Sessions[0]
		assert.Equal(t, "squat", sess.Exercise)
		assert.Positive(t, sess.EvaluatedFrames)

		resp, err = client.Get(ts.URL + "/api/sessions/" + sess.ID)
		require.NoError(t, err)
		defer resp.Body.Close()

		var full store.Session
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&full))
		assert.NotEmpty(t, full.Joints)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "formcheck_test_frames_processed")
		assert.Contains(t, string(body), "formcheck_test_sessions_saved 1")
	})
}

func TestE2E_OfflineEvaluation(t *testing.T) {
	ts := httptest.NewServer(server.New(server.Config{}))
	defer ts.Close()

	body, err := json.Marshal(map[string]any{
		"selection": map[string]any{"exercise": "squat"},
		"landmarks": detector.SquatBottomPose(),
	})
	require.NoError(t, err)

	resp, err := ts.Client().Post(ts.URL+"/api/evaluate", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Exercise string  `json:"exercise"`
		Progress float64 `json:"progress"`
		Joints   []struct {
			Joint string `json:"joint"`
			State string `json:"state"`
		} `json:"joints"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "squat", result.Exercise)
	assert.Len(t, result.Joints, 4)
}
