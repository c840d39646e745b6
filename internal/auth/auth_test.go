package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "rollbook"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue("fac-1", "faculty", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := Parse(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "fac-1", claims.Subject)
	assert.Equal(t, "faculty", claims.Role)
}

func TestParseRejects(t *testing.T) {
	good, _, err := Issue("fac-1", "faculty", testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	expired, _, err := Issue("fac-1", "faculty", testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	anonymous, _, err := Issue("", "faculty", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(good, "other-key", testIssuer)
	assert.Error(t, err)
	_, err = Parse(good, testKey, "someone-else")
	assert.ErrorIs(t, err, ErrIssuerMismatch)
	_, err = Parse(expired, testKey, testIssuer)
	assert.Error(t, err)
	_, err = Parse(anonymous, testKey, testIssuer)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = Parse("not.a.token", testKey, testIssuer)
	assert.Error(t, err)
}

func TestRequiredMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Required(testKey, testIssuer), func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})

	token, _, err := Issue("fac-9", "admin", testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"garbage", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid", "Bearer " + token, http.StatusOK, "fac-9"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "fac-9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestSubjectWithoutClaims(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", Subject(c))
}
