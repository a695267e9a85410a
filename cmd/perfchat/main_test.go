package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSURLForSession(t *testing.T) {
	got, err := wsURLForSession("https://chat.example/base/", "abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://chat.example/base/v1/chat/ws?session_id=abc", got)

	got, err = wsURLForSession("http://127.0.0.1:8080", "s 1")
	require.NoError(t, err)
	assert.Equal(t, "ws://127.0.0.1:8080/v1/chat/ws?session_id=s+1", got)

	_, err = wsURLForSession("ftp://x", "abc")
	require.Error(t, err)
	_, err = wsURLForSession("http://", "abc")
	require.Error(t, err)
}

func TestSummarize(t *testing.T) {
	results := []turnResult{
		{took: 100 * time.Millisecond, ok: true},
		{took: 300 * time.Millisecond, ok: true},
		{took: 200 * time.Millisecond, ok: false, code: "inference_unavailable"},
		{took: 400 * time.Millisecond, ok: false, code: "empty_response"},
	}
	assert.Equal(t,
		"perfchat: turns=4 ok=2 p50=200ms p95=400ms max=400ms empty_response=1 inference_unavailable=1",
		summarize(results),
	)
	assert.Equal(t, "perfchat: no turns", summarize(nil))
}

func TestSplitTextsAndTruncate(t *testing.T) {
	assert.Equal(t, []string{"a", "b c"}, splitTexts(" a || b c |"))
	assert.Empty(t, splitTexts(""))
	assert.Equal(t, "héll…", truncate("héllo", 4))
	assert.Equal(t, "hi", truncate("hi", 4))
}
