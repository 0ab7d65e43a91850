package api

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
)

// FetchTranscripts retrieves the ordered prompt set for one practice session.
func (c *Client) FetchTranscripts(ctx context.Context) (*TranscriptSession, error) {
	resp, err := c.do(ctx, http.MethodGet, "/echo/transcripts", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var session TranscriptSession
	if err := decode(resp, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// submitPayload is the upload body for one recording attempt.
type submitPayload struct {
	Audio string `json:"audio"`
}

// Submit uploads one recording for a transcript, establishing the scoring job.
//
// The raw audio bytes are base64-encoded for the JSON transport. Exactly one
// upload is issued per call; superseding an earlier attempt for the same
// transcript is the caller's concern.
func (c *Client) Submit(ctx context.Context, transcriptID string, audio []byte) error {
	payload := submitPayload{Audio: base64.StdEncoding.EncodeToString(audio)}

	resp, err := c.do(ctx, http.MethodPost, "/echo/"+transcriptID, payload)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return statusError(resp)
	}
}

// FetchResult issues one readiness query for a submitted transcript.
//
// Outcomes: a scored Result (200); ErrNotReady while the scoring job is still
// computing (425); ErrNoResult when the server holds nothing for the handle
// (204) — callers must evict any cached view keyed by this transcript.
func (c *Client) FetchResult(ctx context.Context, transcriptID string) (*Result, error) {
	resp, err := c.do(ctx, http.MethodGet, "/echo/"+transcriptID+"/result", nil)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var result Result
		if err := decode(resp, &result); err != nil {
			return nil, err
		}
		return &result, nil
	case http.StatusNoContent:
		drain(resp)
		return nil, ErrNoResult
	case http.StatusTooEarly:
		drain(resp)
		return nil, ErrNotReady
	case http.StatusNotFound:
		drain(resp)
		return nil, ErrNotFound
	default:
		return nil, statusError(resp)
	}
}

// FetchAudio downloads an opaque audio reference for local playback.
//
// References may be absolute URLs or service-relative paths; contents are
// never inspected here.
func (c *Client) FetchAudio(ctx context.Context, reference string) ([]byte, error) {
	path := reference
	if len(reference) > 0 && reference[0] != '/' {
		// Absolute references bypass the configured base URL.
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reference, nil)
		if err != nil {
			return nil, err
		}
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &TransportError{Op: "GET " + reference, Err: err}
		}
		return readAudio(resp)
	}

	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return readAudio(resp)
}

// readAudio collects an audio body or converts failure statuses to errors.
func readAudio(resp *http.Response) ([]byte, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read audio body", Err: err}
	}
	return body, nil
}
