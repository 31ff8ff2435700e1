package aiagent

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_GetAIProviderConfig(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, tenant_id, credentials")).WithArgs("ai-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "credentials"}).
			AddRow("ai-1", "t-1", []byte(`{"api_key":"k","assistant_id":"asst"}`)))

	cfg, err := NewPostgresStore(db).GetAIProviderConfig(context.Background(), "ai-1")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "t-1", cfg.TenantID)
	assert.Equal(t, "asst", cfg.Credentials["assistant_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MissingConfigIsNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM ai_providers")).WithArgs("ai-x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "credentials"}))

	cfg, err := NewPostgresStore(db).GetAIProviderConfig(context.Background(), "ai-x")
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestPostgresStore_GetProvidersForRouting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, provider_type, kind, name")).WithArgs("t-1", KindVoiceAgent).
		WillReturnRows(sqlmock.NewRows([]string{"id", "provider_type", "kind", "name"}).
			AddRow("ai-1", "vapi", KindVoiceAgent, "Front desk").
			AddRow("ai-2", "retell", KindVoiceAgent, "Night shift"))

	got, err := NewPostgresStore(db).GetProvidersForRouting(context.Background(), "t-1", KindVoiceAgent)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "vapi", got[0].Type)
	assert.Equal(t, "retell", got[1].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
