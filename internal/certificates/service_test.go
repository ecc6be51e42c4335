package certificates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
)

func TestService_ListForUser(t *testing.T) {
	owner := &auth.Identity{UserID: uuid.New()}
	ledger := &memLedger{certs: []models.Certificate{
		{ID: uuid.New(), WebinarID: uuid.New(), UserID: owner.UserID, DocumentKey: "certificates/a"},
		{ID: uuid.New(), WebinarID: uuid.New(), UserID: uuid.New()},
	}}
	svc := NewService(ledger, newFakeDocs(), nil)

	list, err := svc.ListForUser(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].HasDocument)

	list, err = svc.ListForUser(context.Background(), &auth.Identity{UserID: uuid.New()})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	_, err = svc.ListForUser(context.Background(), nil)
	var unauthorized *models.UnauthorizedError
	assert.ErrorAs(t, err, &unauthorized)
}

func TestService_DownloadURL(t *testing.T) {
	owner := &auth.Identity{UserID: uuid.New()}
	withDoc := models.Certificate{ID: uuid.New(), UserID: owner.UserID, DocumentKey: "certificates/w/u/c.html"}
	withoutDoc := models.Certificate{ID: uuid.New(), UserID: owner.UserID}
	ledger := &memLedger{certs: []models.Certificate{withDoc, withoutDoc}}

	t.Run("owner", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		url, expires, err := svc.DownloadURL(context.Background(), owner, withDoc.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://signed.example/certificates/w/u/c.html", url)
		assert.Equal(t, 15*time.Minute, expires)
	})

	t.Run("admin_may_fetch_any", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		_, _, err := svc.DownloadURL(context.Background(), &auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}, withDoc.ID)
		assert.NoError(t, err)
	})

	t.Run("someone_else_sees_not_found", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		_, _, err := svc.DownloadURL(context.Background(), &auth.Identity{UserID: uuid.New()}, withDoc.ID)
		var notFound *models.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("missing", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		_, _, err := svc.DownloadURL(context.Background(), owner, uuid.New())
		var notFound *models.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("no_document", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		_, _, err := svc.DownloadURL(context.Background(), owner, withoutDoc.ID)
		var notFound *models.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("storage_not_configured", func(t *testing.T) {
		svc := NewService(ledger, nil, nil)
		_, _, err := svc.DownloadURL(context.Background(), owner, withDoc.ID)
		assert.ErrorIs(t, err, ErrStorageUnavailable)
	})

	t.Run("anonymous", func(t *testing.T) {
		svc := NewService(ledger, newFakeDocs(), nil)
		_, _, err := svc.DownloadURL(context.Background(), nil, withDoc.ID)
		var unauthorized *models.UnauthorizedError
		assert.ErrorAs(t, err, &unauthorized)
	})
}
