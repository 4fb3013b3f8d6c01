package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shortlink/internal/analytics"
	"shortlink/internal/domain"
	"shortlink/pkg/logger"
)

func newRecorderFixture() (*MockClickRepository, ClickRecorder) {
	clicks := new(MockClickRepository)
	recorder := NewClickRecorder(clicks, analytics.NewUnknownGeoResolver(), logger.NewLogger())
	return clicks, recorder
}

func TestRecord_ClassifiesAndInserts(t *testing.T) {
	clicks, recorder := newRecorderFixture()

	var inserted *domain.ClickRecord
	clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClickRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.ClickRecord)
		}).
		Return(nil)

	recorder.Record(context.Background(), 42, domain.Visit{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0 Safari/537.36",
		IPAddress: "203.0.113.7",
		Referrer:  "https://news.example.com/post",
	})

	require.NotNil(t, inserted)
	assert.Equal(t, uint(42), inserted.LinkID)
	assert.Equal(t, "203.0.113.7", inserted.IPAddress)
	assert.Equal(t, "https://news.example.com/post", inserted.Referrer)
	assert.Equal(t, "desktop", inserted.DeviceType)
	assert.Equal(t, "Chrome", inserted.Browser)
	assert.Equal(t, "Windows", inserted.OperatingSystem)
	assert.Equal(t, "Unknown", inserted.Country)
	assert.Equal(t, "Unknown", inserted.City)
}

func TestRecord_TruncatesLongFields(t *testing.T) {
	clicks, recorder := newRecorderFixture()

	var inserted *domain.ClickRecord
	clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClickRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.ClickRecord)
		}).
		Return(nil)

	recorder.Record(context.Background(), 1, domain.Visit{
		UserAgent: strings.Repeat("u", 900),
		Referrer:  strings.Repeat("r", 900),
	})

	require.NotNil(t, inserted)
	assert.Len(t, inserted.UserAgent, 500)
	assert.Len(t, inserted.Referrer, 500)
}

func TestRecord_SwallowsInsertFailure(t *testing.T) {
	clicks, recorder := newRecorderFixture()

	clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClickRecord")).
		Return(errors.New("connection lost"))

	// Must not panic or propagate; the redirect path depends on it
	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), 1, domain.Visit{UserAgent: "Firefox"})
	})

	clicks.AssertExpectations(t)
}

func TestRecord_EmptyVisit(t *testing.T) {
	clicks, recorder := newRecorderFixture()

	var inserted *domain.ClickRecord
	clicks.On("Create", mock.Anything, mock.AnythingOfType("*domain.ClickRecord")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(*domain.ClickRecord)
		}).
		Return(nil)

	recorder.Record(context.Background(), 1, domain.Visit{})

	require.NotNil(t, inserted)
	assert.Equal(t, "desktop", inserted.DeviceType)
	assert.Equal(t, "Unknown", inserted.Browser)
	assert.Equal(t, "Unknown", inserted.OperatingSystem)
}
