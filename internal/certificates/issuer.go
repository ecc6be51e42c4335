package certificates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yucheyahyasukaca/trainingcenter/internal/auth"
	"github.com/yucheyahyasukaca/trainingcenter/internal/models"
	"github.com/yucheyahyasukaca/trainingcenter/internal/webinars"
	"github.com/yucheyahyasukaca/trainingcenter/pkg/storage"
)

// RegistrantLister lists a webinar's registrations.
type RegistrantLister interface {
	ListByWebinar(ctx context.Context, webinarID uuid.UUID) ([]models.Registration, error)
}

// Ledger is the certificate store.
type Ledger interface {
	ListCertifiedUserIDs(ctx context.Context, webinarID uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, c *models.Certificate) models.InsertResult
	GetByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserCertificate, error)
}

// DocumentStore keeps rendered certificate documents.
type DocumentStore interface {
	PutDocument(ctx context.Context, key, contentType string, body []byte) error
	DeleteDocument(ctx context.Context, key string) error
	PresignDocument(ctx context.Context, key string) (string, time.Duration, error)
}

// ItemStatus is the outcome of issuing to one registrant.
type ItemStatus string

const (
	ItemIssued  ItemStatus = "issued"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemResult records what happened for one registrant.
type ItemResult struct {
	UserID        uuid.UUID  `json:"user_id"`
	Status        ItemStatus `json:"status"`
	CertificateID *uuid.UUID `json:"certificate_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// Report summarizes one issuance run.
type Report struct {
	WebinarID uuid.UUID    `json:"webinar_id"`
	Items     []ItemResult `json:"items"`
}

func (r *Report) count(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}

// Issued is the number of certificates created by this run.
func (r *Report) Issued() int { return r.count(ItemIssued) }

// Skipped is the number of registrants who already held a certificate.
func (r *Report) Skipped() int { return r.count(ItemSkipped) }

// Failed is the number of registrants whose certificate could not be issued.
func (r *Report) Failed() int { return r.count(ItemFailed) }

// IssuerOptions tunes the Issuer.
type IssuerOptions struct {
	// NumberPrefix starts every certificate number, e.g. "TC".
	NumberPrefix string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Issuer issues certificates to every registrant of an ended webinar.
type Issuer struct {
	webinars    webinars.SlugLookup
	registrants RegistrantLister
	ledger      Ledger
	docs        DocumentStore
	renderer    *Renderer
	prefix      string
	now         func() time.Time
	logger      *zap.Logger
}

// NewIssuer creates an issuer. docs may be nil, in which case certificates are
// recorded without a stored document.
func NewIssuer(lookup webinars.SlugLookup, registrants RegistrantLister, ledger Ledger, docs DocumentStore, renderer *Renderer, opts IssuerOptions, logger *zap.Logger) *Issuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NumberPrefix == "" {
		opts.NumberPrefix = "CERT"
	}
	if renderer == nil {
		renderer = NewRenderer("", nil)
	}
	return &Issuer{
		webinars:    lookup,
		registrants: registrants,
		ledger:      ledger,
		docs:        docs,
		renderer:    renderer,
		prefix:      opts.NumberPrefix,
		now:         opts.Now,
		logger:      logger,
	}
}

// Eligible resolves slug and checks the webinar may be certified now. It has no
// side effects and is used to reject requests before queueing them.
func (i *Issuer) Eligible(ctx context.Context, actor *auth.Identity, slug string) (*models.Webinar, error) {
	if actor == nil {
		return nil, models.ErrUnauthorized("login required to issue certificates")
	}
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden("admin role required to issue certificates")
	}
	w, err := webinars.FindBySlug(ctx, i.webinars, slug)
	if err != nil {
		return nil, err
	}
	now := i.now()
	if w.EndsAt == nil {
		return nil, models.ErrPreconditionFailed("webinar %q has no end time", slug)
	}
	if !w.HasEnded(now) {
		return nil, models.ErrPreconditionFailed("webinar %q has not ended yet (ends %s)", slug, w.EndsAt.UTC().Format(time.RFC3339))
	}
	return w, nil
}

// Issue creates a certificate for every registrant of the webinar who does not
// have one. Failures for individual registrants are logged and reported per
// item; only failures that affect the whole run are returned as an error.
func (i *Issuer) Issue(ctx context.Context, actor *auth.Identity, slug string) (*Report, error) {
	w, err := i.Eligible(ctx, actor, slug)
	if err != nil {
		return nil, err
	}

	regs, err := i.registrants.ListByWebinar(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	certifiedIDs, err := i.ledger.ListCertifiedUserIDs(ctx, w.ID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	// Advisory only: the unique constraint decides.
	certified := make(map[uuid.UUID]struct{}, len(certifiedIDs))
	for _, id := range certifiedIDs {
		certified[id] = struct{}{}
	}

	report := &Report{WebinarID: w.ID, Items: make([]ItemResult, 0, len(regs))}
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := certified[reg.UserID]; ok {
			report.Items = append(report.Items, ItemResult{UserID: reg.UserID, Status: ItemSkipped, Reason: "already certified"})
			continue
		}
		certified[reg.UserID] = struct{}{}
		report.Items = append(report.Items, i.issueOne(ctx, w, reg.UserID))
	}

	i.logger.Info("certificates issued",
		zap.String("webinar_id", w.ID.String()),
		zap.String("requested_by", actor.UserID.String()),
		zap.String("requested_by_name", actor.DisplayName()),
		zap.Int("registrants", len(regs)),
		zap.Int("issued", report.Issued()),
		zap.Int("skipped", report.Skipped()),
		zap.Int("failed", report.Failed()),
	)
	return report, nil
}

func (i *Issuer) issueOne(ctx context.Context, w *models.Webinar, userID uuid.UUID) ItemResult {
	issuedAt := i.now().UTC()
	cert := &models.Certificate{
		ID:                uuid.New(),
		WebinarID:         w.ID,
		UserID:            userID,
		CertificateNumber: i.number(issuedAt),
		IssuedAt:          issuedAt,
	}

	if i.docs != nil {
		key, err := i.storeDocument(ctx, w, cert)
		if err != nil {
			return i.failed(w, userID, "store document", err)
		}
		cert.DocumentKey = key
	}

	res := i.ledger.Create(ctx, cert)
	switch res.Status {
	case models.InsertCreated:
		id := cert.ID
		return ItemResult{UserID: userID, Status: ItemIssued, CertificateID: &id}
	case models.InsertAlreadyExists:
		i.discardDocument(ctx, cert.DocumentKey)
		return ItemResult{UserID: userID, Status: ItemSkipped, Reason: "already certified"}
	default:
		i.discardDocument(ctx, cert.DocumentKey)
		return i.failed(w, userID, "insert certificate", res.Err)
	}
}

func (i *Issuer) storeDocument(ctx context.Context, w *models.Webinar, cert *models.Certificate) (string, error) {
	doc, err := i.renderer.Render(DocumentInput{
		Number:   cert.CertificateNumber,
		Webinar:  *w,
		UserID:   cert.UserID,
		IssuedAt: cert.IssuedAt,
	})
	if err != nil {
		return "", err
	}
	key := storage.CertificateKey(w.ID.String(), cert.UserID.String(), cert.ID.String(), DocumentExt)
	if err := i.docs.PutDocument(ctx, key, doc.ContentType, doc.Body); err != nil {
		return "", err
	}
	return key, nil
}

// discardDocument removes a document whose certificate row was not written.
func (i *Issuer) discardDocument(ctx context.Context, key string) {
	if i.docs == nil || key == "" {
		return
	}
	if err := i.docs.DeleteDocument(ctx, key); err != nil {
		i.logger.Warn("orphaned certificate document", zap.String("key", key), zap.Error(err))
	}
}

func (i *Issuer) failed(w *models.Webinar, userID uuid.UUID, step string, err error) ItemResult {
	i.logger.Warn("certificate issue failed",
		zap.String("webinar_id", w.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("step", step),
		zap.Error(err),
	)
	return ItemResult{UserID: userID, Status: ItemFailed, Reason: step + ": " + err.Error()}
}

// number builds PREFIX-YYYYMMDD-XXXXXXXXXXXX from the issue date and random bits.
func (i *Issuer) number(at time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%s-%s-%s", i.prefix, at.Format("20060102"), strings.ToUpper(random))
}
