// Copyright (c) 2024 The Mortar developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelRoundTrip(t *testing.T) {
	var level slog.LevelVar
	ts := httptest.NewServer(HTTPHandler(&level))
	defer ts.Close()

	res, err := http.Get(ts.URL + "/admin/loglevel")
	require.NoError(t, err)
	defer res.Body.Close()
	var current logLevelResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&current))
	assert.Equal(t, "INFO", current.CurrentLevel)

	body, _ := json.Marshal(logLevelRequest{Level: "debug"})
	res, err = http.Post(ts.URL+"/admin/loglevel", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, slog.LevelDebug, level.Level())
}

func TestLogLevelRejectsUnknown(t *testing.T) {
	var level slog.LevelVar
	ts := httptest.NewServer(HTTPHandler(&level))
	defer ts.Close()

	body, _ := json.Marshal(logLevelRequest{Level: "noisy"})
	res, err := http.Post(ts.URL+"/admin/loglevel", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
