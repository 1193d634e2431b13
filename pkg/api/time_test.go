package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "naive micros", raw: `"2025-01-15T10:30:00.123456"`, want: time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC)},
		{name: "naive seconds", raw: `"2025-01-15T10:30:00"`, want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "rfc3339 utc", raw: `"2025-01-15T10:30:00Z"`, want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "rfc3339 offset", raw: `"2025-01-15T13:30:00+03:00"`, want: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{name: "null", raw: `null`},
		{name: "garbage", raw: `"yesterday"`, wantErr: true},
		{name: "number", raw: `1736937000`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.raw), &ts)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_MarshalNaiveUTC(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	data, err := json.Marshal(Timestamp{Time: time.Date(2025, 1, 15, 13, 30, 0, 123456000, msk)})
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-01-15T10:30:00.123456"`, string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

// Тело GET /auth/me в том виде, в каком его отдает backend
func TestUser_DecodeBackendBody(t *testing.T) {
	body := `{
		"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		"email": "ops@example.com",
		"name": "Ops",
		"avatar_url": null,
		"role": "admin",
		"organization_id": "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		"is_active": true,
		"last_login": null,
		"created_at": "2025-01-15T10:30:00.123456"
	}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 123456000, time.UTC), u.CreatedAt.Time)
	assert.Nil(t, u.LastLogin)
	require.NotNil(t, u.OrganizationID)

	// snapshot сессии пишется и читается тем же форматом
	again, err := json.Marshal(u)
	require.NoError(t, err)
	var back User
	require.NoError(t, json.Unmarshal(again, &back))
	assert.True(t, u.CreatedAt.Equal(back.CreatedAt.Time))
	assert.Contains(t, string(again), `"created_at":"2025-01-15T10:30:00.123456"`)
}

func TestPage_DecodeDeployments(t *testing.T) {
	body := `{
		"items": [{
			"id": "d-1",
			"repository_id": "r-1",
			"environment": "production",
			"version": "v1.0.0",
			"commit_sha": "abc1234",
			"branch": null,
			"risk_score": 0.4,
			"risk_factors": {"files_changed": 3},
			"status": "completed",
			"strategy": "rolling",
			"deployed_by": "u-1",
			"deployed_by_user": {"id": "u-1", "name": "Ops", "email": "ops@example.com", "avatar_url": null},
			"rollback_from": null,
			"duration_seconds": 120,
			"impact_metrics": {},
			"notes": null,
			"started_at": "2025-01-15T10:28:00.000001",
			"completed_at": null,
			"created_at": "2025-01-15T10:27:59"
		}],
		"total": 1,
		"page": 1,
		"page_size": 20,
		"total_pages": 1
	}`

	var p Page[Deployment]
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	require.Len(t, p.Items, 1)
	d := p.Items[0]
	assert.Equal(t, "Ops", d.DeployedByUser.Name)
	require.NotNil(t, d.StartedAt)
	assert.Equal(t, 1000, d.StartedAt.Nanosecond())
	assert.Nil(t, d.CompletedAt)
	require.NotNil(t, d.DurationSeconds)
	assert.Equal(t, 120, *d.DurationSeconds)
	assert.Equal(t, 20, p.PageSize)
}
