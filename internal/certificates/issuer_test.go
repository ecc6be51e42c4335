package certificates

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
)

var (
	endsAt = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	admin  = &auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}
)

type fakeLookup struct {
	mu       sync.Mutex
	webinars map[string]*models.Webinar
	calls    int
}

func (f *fakeLookup) GetBySlug(_ context.Context, slug string) (*models.Webinar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if w, ok := f.webinars[slug]; ok {
		return w, nil
	}
	return nil, webinars.ErrNotFound
}

type fakeRegistrants struct {
	regs []models.Registration
	err  error
}

func (f *fakeRegistrants) ListByWebinar(_ context.Context, webinarID uuid.UUID) ([]models.Registration, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Registration
	for _, r := range f.regs {
		if r.WebinarID == webinarID {
			out = append(out, r)
		}
	}
	return out, nil
}

// memLedger holds certificates and enforces one per (user, webinar).
type memLedger struct {
	mu       sync.Mutex
	certs    []models.Certificate
	CreateFn func(c *models.Certificate) (models.InsertResult, bool)
	// staleCertified hides existing rows from ListCertifiedUserIDs.
	staleCertified bool
}

func (m *memLedger) ListCertifiedUserIDs(_ context.Context, webinarID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleCertified {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, c := range m.certs {
		if c.WebinarID == webinarID {
			ids = append(ids, c.UserID)
		}
	}
	return ids, nil
}

func (m *memLedger) Create(_ context.Context, c *models.Certificate) models.InsertResult {
	if m.CreateFn != nil {
		if res, handled := m.CreateFn(c); handled {
			return res
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.certs {
		if existing.UserID == c.UserID && existing.WebinarID == c.WebinarID {
			return models.AlreadyExists()
		}
	}
	m.certs = append(m.certs, *c)
	return models.Created()
}

func (m *memLedger) GetByID(_ context.Context, id uuid.UUID) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.certs {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memLedger) ListForUser(_ context.Context, userID uuid.UUID) ([]models.UserCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.UserCertificate
	for _, c := range m.certs {
		if c.UserID == userID {
			out = append(out, models.UserCertificate{Certificate: c, HasDocument: c.DocumentKey != ""})
		}
	}
	return out, nil
}

func (m *memLedger) rowsFor(webinarID uuid.UUID) []models.Certificate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Certificate
	for _, c := range m.certs {
		if c.WebinarID == webinarID {
			out = append(out, c)
		}
	}
	return out
}

type fakeDocs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	PutFn   func(key string) error
	expires time.Duration
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{objects: map[string][]byte{}, expires: 15 * time.Minute}
}

func (f *fakeDocs) PutDocument(_ context.Context, key, _ string, body []byte) error {
	if f.PutFn != nil {
		if err := f.PutFn(key); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = body
	return nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeDocs) PresignDocument(_ context.Context, key string) (string, time.Duration, error) {
	return "https://signed.example/" + key, f.expires, nil
}

type fixture struct {
	issuer      *Issuer
	lookup      *fakeLookup
	registrants *fakeRegistrants
	ledger      *memLedger
	docs        *fakeDocs
	webinar     *models.Webinar
	now         time.Time
}

func newFixture(t *testing.T, userIDs ...uuid.UUID) *fixture {
	t.Helper()
	end := endsAt
	w := &models.Webinar{ID: uuid.New(), Slug: "w1", Title: "Go Concurrency", StartsAt: endsAt.Add(-2 * time.Hour), EndsAt: &end, IsPublished: true}
	f := &fixture{
		lookup:      &fakeLookup{webinars: map[string]*models.Webinar{w.Slug: w}},
		registrants: &fakeRegistrants{},
		ledger:      &memLedger{},
		docs:        newFakeDocs(),
		webinar:     w,
		now:         endsAt.Add(time.Hour),
	}
	for _, id := range userIDs {
		f.registrants.regs = append(f.registrants.regs, models.Registration{ID: uuid.New(), WebinarID: w.ID, UserID: id})
	}
	f.issuer = NewIssuer(f.lookup, f.registrants, f.ledger, f.docs, NewRenderer("Training Center", nil),
		IssuerOptions{NumberPrefix: "TC", Now: func() time.Time { return f.now }}, nil)
	return f
}

func TestIssuer_Issue(t *testing.T) {
	t.Run("before_end_is_precondition_failure_without_side_effects", func(t *testing.T) {
		f := newFixture(t, uuid.New(), uuid.New())
		f.now = endsAt.Add(-time.Minute)

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		var precondition *models.PreconditionFailedError
		require.ErrorAs(t, err, &precondition)
		assert.Nil(t, report)
		assert.Empty(t, f.ledger.rowsFor(f.webinar.ID))
		assert.Empty(t, f.docs.objects)
	})

	t.Run("exactly_at_end_is_allowed", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		f.now = endsAt

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Issued())
	})

	t.Run("no_end_time_is_precondition_failure", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		f.webinar.EndsAt = nil

		_, err := f.issuer.Issue(context.Background(), admin, "w1")
		var precondition *models.PreconditionFailedError
		require.ErrorAs(t, err, &precondition)
	})

	t.Run("only_uncertified_registrants_get_a_certificate", func(t *testing.T) {
		u1, u2 := uuid.New(), uuid.New()
		f := newFixture(t, u1, u2)
		f.ledger.certs = []models.Certificate{{ID: uuid.New(), WebinarID: f.webinar.ID, UserID: u1, CertificateNumber: "TC-OLD"}}

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Issued())
		assert.Equal(t, 1, report.Skipped())

		rows := f.ledger.rowsFor(f.webinar.ID)
		require.Len(t, rows, 2)
		var u2Cert *models.Certificate
		for i := range rows {
			if rows[i].UserID == u2 {
				u2Cert = &rows[i]
			}
		}
		require.NotNil(t, u2Cert)
		assert.Regexp(t, `^TC-\d{8}-[0-9A-F]{12}$`, u2Cert.CertificateNumber)
		assert.NotEmpty(t, u2Cert.DocumentKey)
		assert.Contains(t, f.docs.objects, u2Cert.DocumentKey)
	})

	t.Run("second_run_issues_nothing", func(t *testing.T) {
		f := newFixture(t, uuid.New(), uuid.New(), uuid.New())

		first, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 3, first.Issued())

		second, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 0, second.Issued())
		assert.Equal(t, 3, second.Skipped())
		assert.Len(t, f.ledger.rowsFor(f.webinar.ID), 3)
	})

	t.Run("concurrent_runs_never_exceed_one_per_registrant", func(t *testing.T) {
		f := newFixture(t, uuid.New(), uuid.New(), uuid.New(), uuid.New())
		f.ledger.staleCertified = true

		var wg sync.WaitGroup
		totals := make([]int, 4)
		for i := range totals {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				report, err := f.issuer.Issue(context.Background(), admin, "w1")
				if err == nil {
					totals[i] = report.Issued()
				}
			}(i)
		}
		wg.Wait()

		sum := 0
		for _, n := range totals {
			sum += n
		}
		assert.Equal(t, 4, sum)
		assert.Len(t, f.ledger.rowsFor(f.webinar.ID), 4)
	})

	t.Run("lost_race_is_skipped_and_document_discarded", func(t *testing.T) {
		u1 := uuid.New()
		f := newFixture(t, u1)
		f.ledger.staleCertified = true
		f.ledger.certs = []models.Certificate{{ID: uuid.New(), WebinarID: f.webinar.ID, UserID: u1}}

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 0, report.Issued())
		assert.Equal(t, ItemSkipped, report.Items[0].Status)
		assert.Len(t, f.docs.deleted, 1)
		assert.Empty(t, f.docs.objects)
	})

	t.Run("insert_failure_skips_only_that_registrant", func(t *testing.T) {
		u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
		f := newFixture(t, u1, u2, u3)
		f.ledger.CreateFn = func(c *models.Certificate) (models.InsertResult, bool) {
			if c.UserID == u2 {
				return models.Failed(errors.New("deadlock detected")), true
			}
			return models.InsertResult{}, false
		}

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Issued())
		assert.Equal(t, 1, report.Failed())
		for _, it := range report.Items {
			if it.UserID == u2 {
				assert.Equal(t, ItemFailed, it.Status)
				assert.Contains(t, it.Reason, "deadlock detected")
			}
		}
		assert.Len(t, f.ledger.rowsFor(f.webinar.ID), 2)
		assert.Len(t, f.docs.objects, 2)
	})

	t.Run("storage_failure_skips_only_that_registrant", func(t *testing.T) {
		u1, u2 := uuid.New(), uuid.New()
		f := newFixture(t, u1, u2)
		f.docs.PutFn = func(key string) error {
			if strings.Contains(key, u1.String()) {
				return errors.New("s3 unavailable")
			}
			return nil
		}

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Issued())
		assert.Equal(t, 1, report.Failed())
		rows := f.ledger.rowsFor(f.webinar.ID)
		require.Len(t, rows, 1)
		assert.Equal(t, u2, rows[0].UserID)
	})

	t.Run("without_storage_certificates_have_no_document", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		f.issuer = NewIssuer(f.lookup, f.registrants, f.ledger, nil, nil,
			IssuerOptions{Now: func() time.Time { return f.now }}, nil)

		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 1, report.Issued())
		rows := f.ledger.rowsFor(f.webinar.ID)
		require.Len(t, rows, 1)
		assert.Empty(t, rows[0].DocumentKey)
		assert.Regexp(t, `^CERT-`, rows[0].CertificateNumber)
	})

	t.Run("no_registrants", func(t *testing.T) {
		f := newFixture(t)
		report, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.NoError(t, err)
		assert.Equal(t, 0, report.Issued())
		assert.NotNil(t, report.Items)
	})

	t.Run("anonymous_is_unauthorized_before_lookup", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		_, err := f.issuer.Issue(context.Background(), nil, "w1")
		var unauthorized *models.UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
		assert.Zero(t, f.lookup.calls)
	})

	t.Run("non_admin_is_forbidden_before_lookup", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		participant := &auth.Identity{UserID: uuid.New(), Role: "participant"}
		_, err := f.issuer.Issue(context.Background(), participant, "w1")
		var forbidden *models.ForbiddenError
		require.ErrorAs(t, err, &forbidden)
		assert.Zero(t, f.lookup.calls)
		assert.Empty(t, f.ledger.rowsFor(f.webinar.ID))
	})

	t.Run("unknown_webinar", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		_, err := f.issuer.Issue(context.Background(), admin, "nope")
		var notFound *models.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("registration_listing_failure_fails_the_run", func(t *testing.T) {
		f := newFixture(t, uuid.New())
		f.registrants.err = errors.New("connection reset")
		_, err := f.issuer.Issue(context.Background(), admin, "w1")
		require.Error(t, err)
		assert.ErrorIs(t, err, f.registrants.err)
		assert.Empty(t, f.ledger.rowsFor(f.webinar.ID))
	})
}
