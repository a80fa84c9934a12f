package middleware

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks RateLimiter

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landgrid/internal/ratelimit/middleware/mocks"
	"landgrid/internal/ratelimit/models"
	"landgrid/pkg/domain"
	metadata "landgrid/pkg/platform/middleware/metadata"
	"landgrid/pkg/requestcontext"
)

type MiddlewareSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	mockLimiter *mocks.MockRateLimiter
	middleware  *Middleware
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockLimiter = mocks.NewMockRateLimiter(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.middleware = New(s.mockLimiter, logger)
}

func (s *MiddlewareSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *MiddlewareSuite) serve(mw func(http.Handler) http.Handler, req *http.Request) *httptest.ResponseRecorder {
	var reached bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)
	if rec.Code == http.StatusNoContent {
		s.True(reached)
	}
	return rec
}

func allowed(limit, remaining int) *models.RateLimitResult {
	return &models.RateLimitResult{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(time.Minute),
	}
}

func (s *MiddlewareSuite) TestAnonymousCallerKeyedByIP() {
	s.mockLimiter.EXPECT().
		CheckIP(gomock.Any(), "203.0.113.7", models.ClassRead).
		Return(allowed(600, 599), nil)

	req := httptest.NewRequest(http.MethodGet, "/plots/1", nil)
	req = req.WithContext(metadata.WithClientIP(req.Context(), "203.0.113.7"))

	rec := s.serve(s.middleware.RateLimit(models.ClassRead), req)
	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("600", rec.Header().Get("X-RateLimit-Limit"))
	s.Equal("599", rec.Header().Get("X-RateLimit-Remaining"))
}

func (s *MiddlewareSuite) TestAuthenticatedCallerKeyedByAccount() {
	caller := domain.NewAccountID()
	s.mockLimiter.EXPECT().
		CheckAccount(gomock.Any(), caller.String(), models.ClassWrite).
		Return(allowed(120, 119), nil)

	req := httptest.NewRequest(http.MethodPost, "/plots/claim", nil)
	req = req.WithContext(requestcontext.WithCaller(req.Context(), caller))

	rec := s.serve(s.middleware.RateLimit(models.ClassWrite), req)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *MiddlewareSuite) TestBlockedRequestGets429() {
	resetAt := time.Now().Add(30 * time.Second)
	s.mockLimiter.EXPECT().
		CheckIP(gomock.Any(), gomock.Any(), models.ClassWrite).
		Return(&models.RateLimitResult{
			Allowed:    false,
			Limit:      120,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: 30,
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/plots/claim", nil)

	rec := s.serve(s.middleware.RateLimit(models.ClassWrite), req)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("30", rec.Header().Get("Retry-After"))
	s.Contains(rec.Body.String(), "rate_limit_exceeded")
}

func (s *MiddlewareSuite) TestLimiterFailureFailsOpen() {
	s.mockLimiter.EXPECT().
		CheckIP(gomock.Any(), gomock.Any(), models.ClassRead).
		Return(nil, errors.New("redis unreachable"))

	req := httptest.NewRequest(http.MethodGet, "/plots/1", nil)

	rec := s.serve(s.middleware.RateLimit(models.ClassRead), req)
	s.Equal(http.StatusNoContent, rec.Code, "limiter outage must not reject traffic")
}

func (s *MiddlewareSuite) TestDisabledSkipsLimiter() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := New(s.mockLimiter, logger, WithDisabled(true))

	req := httptest.NewRequest(http.MethodGet, "/plots/1", nil)

	rec := s.serve(mw.RateLimit(models.ClassRead), req)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *MiddlewareSuite) TestRateLimitByClass() {
	s.mockLimiter.EXPECT().
		CheckIP(gomock.Any(), gomock.Any(), models.ClassAdmin).
		Return(allowed(30, 29), nil)

	classify := func(r *http.Request) models.EndpointClass {
		return models.ClassAdmin
	}
	req := httptest.NewRequest(http.MethodPost, "/admin/params", nil)

	rec := s.serve(s.middleware.RateLimitByClass(classify), req)
	s.Equal(http.StatusNoContent, rec.Code)
}
