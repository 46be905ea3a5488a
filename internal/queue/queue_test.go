package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostviewed/trending-tracker-go/internal/scheduler"
)

func TestParseRedisURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantAddr string
		wantPass string
		wantDB   int
		wantTLS  bool
		wantErr  bool
	}{
		{"legacy host port", "localhost:6379", "localhost:6379", "", 0, false, false},
		{"redis scheme", "redis://localhost:6379", "localhost:6379", "", 0, false, false},
		{"with password", "redis://:secret@redis.internal:6380", "redis.internal:6380", "secret", 0, false, false},
		{"with db", "redis://localhost:6379/3", "localhost:6379", "", 3, false, false},
		{"tls scheme", "rediss://redis.internal:6380", "redis.internal:6380", "", 0, true, false},
		{"bad scheme", "http://localhost:6379", "", "", 0, false, true},
		{"missing host", "redis://", "", "", 0, false, true},
		{"bad db", "redis://localhost:6379/abc", "", "", 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := ParseRedisURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, opt.Addr)
			assert.Equal(t, tt.wantPass, opt.Password)
			assert.Equal(t, tt.wantDB, opt.DB)
			assert.Equal(t, tt.wantTLS, opt.TLSConfig != nil)
		})
	}
}

func TestTaskTypeForJob(t *testing.T) {
	tests := []struct {
		job  scheduler.Job
		want string
	}{
		{scheduler.JobVideos, TypeVideos},
		{scheduler.JobShorts, TypeShorts},
		{scheduler.JobCountries, TypeCountries},
		{scheduler.JobCreators, TypeCreators},
	}

	for _, tt := range tests {
		got, err := TaskTypeForJob(tt.job)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := TaskTypeForJob(scheduler.JobNone)
	assert.Error(t, err)
}

func TestJobPayloadRoundTrip(t *testing.T) {
	payload := &JobPayload{
		RunID:   "run-123",
		Trigger: "manual",
		FiredAt: time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC),
	}

	data, err := payload.Marshal()
	require.NoError(t, err)

	got, err := UnmarshalJobPayload(data)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = UnmarshalJobPayload([]byte("not json"))
	assert.Error(t, err)
}
