package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/common/config"
)

// ==========================
// Postgres
// ==========================

func TestConfigurePool(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.PostgresConfig
		wantMax int
	}{
		{"configured", config.PostgresConfig{MaxConnections: 25, MaxIdle: 5}, 25},
		{"defaults", config.PostgresConfig{}, defaultMaxOpenConns},
		{"idle above max", config.PostgresConfig{MaxConnections: 4, MaxIdle: 40}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			configurePool(db, tt.cfg)
			assert.Equal(t, tt.wantMax, db.Stats().MaxOpenConnections)
		})
	}
}

func TestPostgres_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	pg := &Postgres{DB: db}
	mock.ExpectPing()
	require.NoError(t, pg.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(assert.AnError)
	err = pg.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")

	mock.ExpectClose()
	require.NoError(t, pg.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_DoesNotDial(t *testing.T) {
	pg, err := NewPostgres(config.PostgresConfig{Host: "127.0.0.1", Port: 1, Database: "travel", User: "u", SSLMode: "disable"})
	require.NoError(t, err)
	defer pg.Close()
	assert.Equal(t, defaultMaxOpenConns, pg.DB.Stats().MaxOpenConnections)
}

// ==========================
// Redis
// ==========================

func TestRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	r := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, r.Ping(context.Background()))
	require.NoError(t, r.Close())

	addr := mr.Addr()
	mr.Close()
	down := NewRedis(config.RedisConfig{Address: addr})
	defer down.Close()
	err := down.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{Address: "cache:6379", Password: "pw", DB: 3})
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
	assert.Positive(t, opts.PoolSize)
}

// ==========================
// Elasticsearch
// ==========================

func TestElasticsearch(t *testing.T) {
	t.Run("no address", func(t *testing.T) {
		_, err := NewElasticsearch(config.ElasticsearchConfig{})
		require.Error(t, err)
	})

	t.Run("ping", func(t *testing.T) {
		var status atomic.Int32
		status.Store(http.StatusOK)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Elastic-Product", "Elasticsearch")
			w.WriteHeader(int(status.Load()))
		}))
		defer srv.Close()

		es, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL})
		require.NoError(t, err)
		require.NoError(t, es.Ping(context.Background()))

		status.Store(http.StatusServiceUnavailable)
		err = es.Ping(context.Background())
		require.Error(t, err)
	})
}
