package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Bigbebra2/bazarchik-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMyProfileAndPublicProfile(t *testing.T) {
	app, _ := setupTestServer(t)
	access, _, userID := registerAndLogin(t, app, "profiled@example.com")
	createPostViaAPI(t, app, access, "Visible post")

	resp := jsonRequest(t, app, http.MethodGet, "/api/profile/my-profile", nil, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	mine := decodeBody(t, resp)
	assert.Equal(t, "profiled@example.com", mine["email"])
	assert.Equal(t, "Anna", mine["name"])
	posts, ok := mine["posts"].([]any)
	require.True(t, ok)
	assert.Len(t, posts, 1)

	resp = jsonRequest(t, app, http.MethodGet, fmt.Sprintf("/api/profile/%d", userID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	public := decodeBody(t, resp)
	assert.Equal(t, "Anna", public["name"])
	assert.Equal(t, "profiled@example.com", public["email"])
	_, hasPosts := public["posts"]
	assert.False(t, hasPosts, "only my-profile lists the user's posts")

	resp = jsonRequest(t, app, http.MethodGet, "/api/profile/99999", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUploadAvatar(t *testing.T) {
	app, _ := setupTestServer(t)
	access, _, _ := registerAndLogin(t, app, "ava@example.com")

	png := testutil.TinyPNG(t, 4, 4)
	body, contentType := testutil.BuildMultipart(t, nil, []testutil.MultipartFile{
		{Field: "ava", Name: "me.png", Content: png},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile/my-profile/upload-ava", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decoded := decodeBody(t, resp)
	avaPath, _ := decoded["ava_path"].(string)
	require.NotEmpty(t, avaPath)

	// The stored avatar is servable through the image route.
	resp = jsonRequest(t, app, http.MethodGet, "/api/profile/get-image/"+avaPath, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestUploadAvatarRejectsTwoFiles(t *testing.T) {
	app, _ := setupTestServer(t)
	access, _, _ := registerAndLogin(t, app, "twofiles@example.com")

	png := testutil.TinyPNG(t, 4, 4)
	body, contentType := testutil.BuildMultipart(t, nil, []testutil.MultipartFile{
		{Field: "ava", Name: "a.png", Content: png},
		{Field: "ava", Name: "b.png", Content: png},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/profile/my-profile/upload-ava", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decoded := decodeBody(t, resp)
	assert.Equal(t, "Only 1 image needed", decoded["error"])
}

func TestSetProfileData(t *testing.T) {
	app, _ := setupTestServer(t)
	access, _, userID := registerAndLogin(t, app, "editor@example.com")

	resp := jsonRequest(t, app, http.MethodPut, "/api/profile/my-profile/set-data", map[string]any{
		"phone_number": "123",
		"bio":          "Should not stick",
	}, access)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = jsonRequest(t, app, http.MethodPut, "/api/profile/my-profile/set-data", map[string]any{
		"name":     "Maria",
		"bio":      "Selling my stuff",
		"location": "Prague",
	}, access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = jsonRequest(t, app, http.MethodGet, fmt.Sprintf("/api/profile/%d", userID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	public := decodeBody(t, resp)
	assert.Equal(t, "Maria", public["name"])
	assert.Equal(t, "Selling my stuff", public["bio"])
	assert.Equal(t, "Prague", public["location"])
}

func TestDeleteProfileRequiresFreshToken(t *testing.T) {
	app, _ := setupTestServer(t)
	_, refresh, _ := registerAndLogin(t, app, "fresh@example.com")

	// A refreshed access token is not fresh.
	resp := jsonRequest(t, app, http.MethodPost, "/api/auth/refresh", nil, refresh)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	staleAccess := body["access_token"].(string)

	resp = jsonRequest(t, app, http.MethodDelete, "/api/profile/delete-profile", nil, staleAccess)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestDeleteProfileRevokesToken(t *testing.T) {
	app, _ := setupTestServer(t)
	access, _, userID := registerAndLogin(t, app, "gone@example.com")

	resp := jsonRequest(t, app, http.MethodDelete, "/api/profile/delete-profile", nil, access)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// The deleted account's token no longer works anywhere.
	resp = jsonRequest(t, app, http.MethodGet, "/api/profile/my-profile", nil, access)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	resp = jsonRequest(t, app, http.MethodGet, fmt.Sprintf("/api/profile/%d", userID), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
