package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	token       string
	invalidated atomic.Int32
}

func (f *fakeTokens) Token() string { return f.token }
func (f *fakeTokens) Invalidate()   { f.invalidated.Add(1) }

func TestFetchTranscriptsAttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/echo/transcripts", r.URL.Path)
		_ = json.NewEncoder(w).Encode(TranscriptSession{
			ID:       "01ABC",
			Topic:    "travel",
			Scenario: "Ordering coffee at the airport.",
			Items: []Transcript{
				{ID: "t1", Text: "One flat white, please.", Sequence: "/wʌn/flæt/waɪt/pliːz/"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Tokens: &fakeTokens{token: "tok-123"}})
	session, err := client.FetchTranscripts(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", gotAuth)
	require.Equal(t, "travel", session.Topic)
	require.Len(t, session.Items, 1)
	require.Equal(t, "t1", session.Items[0].ID)
}

func TestUnauthorizedInvalidatesCredentialProcessWide(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &fakeTokens{token: "stale"}
	client := NewClient(Config{BaseURL: server.URL, Tokens: tokens})

	_, err := client.FetchTranscripts(context.Background())
	require.ErrorIs(t, err, ErrAuthExpired)
	require.Equal(t, int32(1), tokens.invalidated.Load())

	err = client.Submit(context.Background(), "t1", []byte{1, 2, 3})
	require.ErrorIs(t, err, ErrAuthExpired)
	require.Equal(t, int32(2), tokens.invalidated.Load())
}

func TestSubmitEncodesAudioBase64(t *testing.T) {
	raw := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0xFF}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/echo/t1", r.URL.Path)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload struct {
			Audio string `json:"audio"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.Equal(t, base64.StdEncoding.EncodeToString(raw), payload.Audio)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, client.Submit(context.Background(), "t1", raw))
}

func TestSubmitUnknownTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.Submit(context.Background(), "missing", []byte{0})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFetchResultReadinessOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "too early", status: http.StatusTooEarly, wantErr: ErrNotReady},
		{name: "absent", status: http.StatusNoContent, wantErr: ErrNoResult},
		{name: "unknown transcript", status: http.StatusNotFound, wantErr: ErrNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			result, err := client.FetchResult(context.Background(), "t1")
			require.Nil(t, result)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestFetchResultReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/echo/t1/result", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"feedback": {"text": "Crisp vowels.", "audio": "/media/fb.wav"},
			"pronunciation": {
				"phonemes": ["w", "ʌ", "n"],
				"alignments": [
					{"token": "w", "score": 0.9, "interval": [0, 120]},
					{"token": "ʌ", "score": 0.7, "interval": [120, 260]}
				],
				"words": [["one", [{"token": "w", "score": 0.9, "interval": [0, 120]}]]]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.FetchResult(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, "Crisp vowels.", result.Feedback.Text)
	require.Len(t, result.Pronunciation.Alignments, 2)
	require.Equal(t, [2]int{120, 260}, result.Pronunciation.Alignments[1].Interval)
	require.Len(t, result.Pronunciation.Words, 1)
	require.Equal(t, "one", result.Pronunciation.Words[0].Word)
	require.Len(t, result.Pronunciation.Words[0].Alignments, 1)
}

func TestFetchResultServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "analysis failed", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.FetchResult(context.Background(), "t1")

	var status *StatusError
	require.ErrorAs(t, err, &status)
	require.Equal(t, http.StatusInternalServerError, status.Status)
	require.Contains(t, status.Body, "analysis failed")
}

func TestTransportErrorIsTransient(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.FetchTranscripts(context.Background())
	require.Error(t, err)
	require.True(t, IsTransient(err))
}

func TestWordAlignmentRoundTrip(t *testing.T) {
	in := WordAlignment{
		Word: "please",
		Alignments: []Alignment{
			{Token: "p", Score: 0.5, Interval: [2]int{0, 80}},
			{Token: "l", Score: 0.8, Interval: [2]int{80, 150}},
		},
	}

	encoded, err := json.Marshal(in)
	require.NoError(t, err)

	var out WordAlignment
	require.NoError(t, json.Unmarshal(encoded, &out))
	require.Equal(t, in, out)
}

func TestWordAlignmentRejectsMalformedPair(t *testing.T) {
	var out WordAlignment
	err := json.Unmarshal([]byte(`["word"]`), &out)
	require.Error(t, err)
	require.Contains(t, err.Error(), "want 2")
}
