package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnloop/payments/internal/metrics"
	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/internal/pricing"
	"github.com/learnloop/payments/pkg/database"
)

// PaymentRepositoryInterface defines the interface for transaction data access.
type PaymentRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, t *model.PaymentTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)
	GetByIDForUpdate(ctx context.Context, tx database.TxQuerier, id uuid.UUID) (*model.PaymentTransaction, error)
	ApplyDecision(ctx context.Context, tx database.TxQuerier, id uuid.UUID,
		status model.TransactionStatus, verification model.VerificationStatus,
		verifiedBy uuid.UUID, verifiedAt time.Time, rejectionReason, notes string) error
	MarkCancelled(ctx context.Context, tx database.TxQuerier, id, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error)
	ListByVerificationStatus(ctx context.Context, vs model.VerificationStatus) ([]model.PaymentTransaction, error)
}

// HistoryRepositoryInterface defines the interface for the audit trail.
type HistoryRepositoryInterface interface {
	Append(ctx context.Context, tx database.TxQuerier, e *model.PaymentHistoryEntry) error
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.PaymentHistoryEntry, error)
}

// PromoUsageInterface is the storage-level atomic increment-with-ceiling.
type PromoUsageInterface interface {
	IncrementUsage(ctx context.Context, tx database.TxQuerier, code string) error
}

// MethodReaderInterface reads payment method configuration.
type MethodReaderInterface interface {
	GetByProvider(ctx context.Context, provider string) (*model.PaymentMethodConfig, error)
}

// CatalogReaderInterface prices payment targets.
type CatalogReaderInterface interface {
	GetCourse(ctx context.Context, id uuid.UUID) (*model.Course, error)
	GetBundle(ctx context.Context, id uuid.UUID) (*model.Bundle, error)
	GetBundleCourses(ctx context.Context, bundleID uuid.UUID) ([]model.Course, error)
}

// PromoValidatorInterface checks a code's redeemability without mutating it.
type PromoValidatorInterface interface {
	Validate(ctx context.Context, code string, targetType model.TargetType, targetID uuid.UUID, now time.Time) (*model.Discount, error)
}

// Enroller grants course/bundle access once a payment is approved.
// Implementations must tolerate duplicate invocation without double-granting.
type Enroller interface {
	Grant(ctx context.Context, userID uuid.UUID, targetType model.TargetType, targetID uuid.UUID) error
}

// Notifier is informed of terminal transitions. It has no write access to
// the ledger and failures must not affect the transaction outcome.
type Notifier interface {
	TransactionFinalized(ctx context.Context, t *model.PaymentTransaction)
}

// PaymentService owns the transaction ledger and the verification workflow.
type PaymentService struct {
	pool     database.TxBeginner
	txRepo   PaymentRepositoryInterface
	histRepo HistoryRepositoryInterface
	usage    PromoUsageInterface
	methods  MethodReaderInterface
	catalog  CatalogReaderInterface
	promos   PromoValidatorInterface
	enroller Enroller
	notifier Notifier
	now      func() time.Time
}

// NewPaymentService creates a new PaymentService with the given pool and collaborators.
func NewPaymentService(
	pool *pgxpool.Pool,
	txRepo PaymentRepositoryInterface,
	histRepo HistoryRepositoryInterface,
	usage PromoUsageInterface,
	methods MethodReaderInterface,
	catalog CatalogReaderInterface,
	promos PromoValidatorInterface,
	enroller Enroller,
	notifier Notifier,
) *PaymentService {
	return newPaymentService(pool, txRepo, histRepo, usage, methods, catalog, promos, enroller, notifier)
}

// NewPaymentServiceWithTxBeginner creates a PaymentService with a custom TxBeginner.
// Primarily used for testing.
func NewPaymentServiceWithTxBeginner(
	pool database.TxBeginner,
	txRepo PaymentRepositoryInterface,
	histRepo HistoryRepositoryInterface,
	usage PromoUsageInterface,
	methods MethodReaderInterface,
	catalog CatalogReaderInterface,
	promos PromoValidatorInterface,
	enroller Enroller,
	notifier Notifier,
) *PaymentService {
	return newPaymentService(pool, txRepo, histRepo, usage, methods, catalog, promos, enroller, notifier)
}

func newPaymentService(
	pool database.TxBeginner,
	txRepo PaymentRepositoryInterface,
	histRepo HistoryRepositoryInterface,
	usage PromoUsageInterface,
	methods MethodReaderInterface,
	catalog CatalogReaderInterface,
	promos PromoValidatorInterface,
	enroller Enroller,
	notifier Notifier,
) *PaymentService {
	return &PaymentService{
		pool:     pool,
		txRepo:   txRepo,
		histRepo: histRepo,
		usage:    usage,
		methods:  methods,
		catalog:  catalog,
		promos:   promos,
		enroller: enroller,
		notifier: notifier,
		now:      time.Now,
	}
}

// Submit validates a learner's payment submission, prices it and creates a
// (pending, pending) ledger record with its first audit entry.
// Returns:
//   - ErrMethodNotFound / ErrMethodDisabled for an unusable payment method
//   - ErrItemNotFound if the target cannot be priced
//   - promo validation errors from PromoService.Validate
//   - ErrAmountOutOfRange before any row is created
//   - ErrDuplicateSubmission when an identical submission is still pending
func (s *PaymentService) Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	targetID, err := uuid.Parse(req.TargetID)
	if err != nil {
		return nil, ErrInvalidRequest
	}
	targetType := model.TargetType(req.TargetType)

	method, err := s.methods.GetByProvider(ctx, req.PaymentMethod)
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	if method == nil {
		return nil, ErrMethodNotFound
	}
	if !method.IsEnabled {
		return nil, ErrMethodDisabled
	}

	base, err := s.priceTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	quote := pricing.Quote{OriginalAmount: base, FinalAmount: base}
	promoCode := strings.ToUpper(strings.TrimSpace(req.PromoCode))
	if promoCode != "" {
		discount, err := s.promos.Validate(ctx, promoCode, targetType, targetID, s.now())
		if err != nil {
			return nil, err
		}
		quote = pricing.Compute(base, discount.Type, discount.Value)
	}

	// Processing fee applies to the post-discount amount
	fee := pricing.PercentOf(quote.FinalAmount, method.FeePercent)
	total := quote.FinalAmount + fee
	if total < method.MinAmount || (method.MaxAmount > 0 && total > method.MaxAmount) {
		return nil, ErrAmountOutOfRange
	}

	t := &model.PaymentTransaction{
		ID:                 uuid.New(),
		UserID:             userID,
		TargetType:         targetType,
		TargetID:           targetID,
		PaymentMethod:      req.PaymentMethod,
		OriginalAmount:     quote.OriginalAmount,
		DiscountAmount:     quote.DiscountAmount,
		Amount:             quote.FinalAmount,
		FeeAmount:          fee,
		TotalAmount:        total,
		PromoCode:          promoCode,
		PaymentReference:   req.PaymentReference,
		PaymentProofURL:    req.ProofRef,
		Status:             model.StatusPending,
		VerificationStatus: model.VerificationPending,
	}

	err = database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.txRepo.Insert(ctx, tx, t); err != nil {
			return err
		}
		return s.histRepo.Append(ctx, tx, &model.PaymentHistoryEntry{
			ID:            uuid.New(),
			TransactionID: t.ID,
			Action:        model.HistorySubmitted,
			PerformedBy:   userID,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsSubmitted.Inc()
	return t, nil
}

func (s *PaymentService) priceTarget(ctx context.Context, targetType model.TargetType, targetID uuid.UUID) (int64, error) {
	switch targetType {
	case model.TargetCourse:
		course, err := s.catalog.GetCourse(ctx, targetID)
		if err != nil {
			return 0, fmt.Errorf("get course: %w", err)
		}
		if course == nil || !course.IsPublished {
			return 0, ErrItemNotFound
		}
		return course.PriceAmount, nil
	case model.TargetBundle:
		bundle, err := s.catalog.GetBundle(ctx, targetID)
		if err != nil {
			return 0, fmt.Errorf("get bundle: %w", err)
		}
		if bundle == nil {
			return 0, ErrItemNotFound
		}
		courses, err := s.catalog.GetBundleCourses(ctx, targetID)
		if err != nil {
			return 0, fmt.Errorf("get bundle courses: %w", err)
		}
		bq := pricing.ComposeBundle(bundle.PriceAmount, bundle.DiscountPercentage, courses)
		return bq.DiscountedPrice, nil
	default:
		return 0, ErrInvalidRequest
	}
}

// Approve settles a pending transaction: (completed, approved), stamped,
// audited, the promo slot consumed, enrollment granted. All of it commits
// as one unit; the promo ceiling or a failed enrollment grant rolls the
// decision back and the record stays pending.
// Returns:
//   - ErrTransactionNotFound if the transaction doesn't exist
//   - ErrInvalidStateTransition if the record is already terminal (a lost
//     concurrent decision surfaces the same way: the loser observes the
//     terminal record)
//   - ErrPromoMaxUses if the promo slot is gone by finalization time
func (s *PaymentService) Approve(ctx context.Context, transactionID, adminID uuid.UUID, notes string) (*model.PaymentTransaction, error) {
	var updated *model.PaymentTransaction

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rec, err := s.txRepo.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if rec.Decided() || rec.Status != model.StatusPending {
			return ErrInvalidStateTransition
		}

		decidedAt := s.now()
		err = s.txRepo.ApplyDecision(ctx, tx, transactionID,
			model.StatusCompleted, model.VerificationApproved, adminID, decidedAt, "", notes)
		if err != nil {
			return err
		}

		// Redeemability is re-checked here, not just at submission: the
		// increment-with-ceiling is the only writer of used_count.
		if rec.PromoCode != "" {
			if err := s.usage.IncrementUsage(ctx, tx, rec.PromoCode); err != nil {
				metrics.PromoRedemptions.WithLabelValues("ceiling_hit").Inc()
				return err
			}
			metrics.PromoRedemptions.WithLabelValues("redeemed").Inc()
		}

		err = s.histRepo.Append(ctx, tx, &model.PaymentHistoryEntry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			Action:        model.HistoryApproved,
			PerformedBy:   adminID,
			Notes:         notes,
		})
		if err != nil {
			return err
		}

		// Grant before commit: a failure leaves the record pending and a
		// retried approve re-invokes the idempotent collaborator.
		if err := s.enroller.Grant(ctx, rec.UserID, rec.TargetType, rec.TargetID); err != nil {
			return fmt.Errorf("grant enrollment: %w", err)
		}

		rec.Status = model.StatusCompleted
		rec.VerificationStatus = model.VerificationApproved
		rec.VerifiedBy = &adminID
		rec.VerifiedAt = &decidedAt
		rec.Notes = notes
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("approved").Inc()
	s.notifier.TransactionFinalized(ctx, updated)
	return updated, nil
}

// Reject fails a pending transaction with a mandatory reason.
// Returns ErrInvalidRequest when the reason is blank; the record is left
// untouched. State guards match Approve.
func (s *PaymentService) Reject(ctx context.Context, transactionID, adminID uuid.UUID, reason string) (*model.PaymentTransaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrInvalidRequest
	}

	var updated *model.PaymentTransaction

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rec, err := s.txRepo.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if rec.Decided() || rec.Status != model.StatusPending {
			return ErrInvalidStateTransition
		}

		decidedAt := s.now()
		err = s.txRepo.ApplyDecision(ctx, tx, transactionID,
			model.StatusFailed, model.VerificationRejected, adminID, decidedAt, reason, "")
		if err != nil {
			return err
		}

		err = s.histRepo.Append(ctx, tx, &model.PaymentHistoryEntry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			Action:        model.HistoryRejected,
			PerformedBy:   adminID,
			Notes:         reason,
		})
		if err != nil {
			return err
		}

		rec.Status = model.StatusFailed
		rec.VerificationStatus = model.VerificationRejected
		rec.VerifiedBy = &adminID
		rec.VerifiedAt = &decidedAt
		rec.RejectionReason = reason
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("rejected").Inc()
	s.notifier.TransactionFinalized(ctx, updated)
	return updated, nil
}

// Cancel lets a learner withdraw their own submission while it is still
// fully pending. (cancelled, pending) is terminal.
func (s *PaymentService) Cancel(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error) {
	var updated *model.PaymentTransaction

	err := database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		rec, err := s.txRepo.GetByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if rec.UserID != userID {
			// Do not leak other users' transactions
			return ErrTransactionNotFound
		}
		if !rec.Cancellable() {
			return ErrInvalidStateTransition
		}

		if err := s.txRepo.MarkCancelled(ctx, tx, transactionID, userID); err != nil {
			return err
		}

		err = s.histRepo.Append(ctx, tx, &model.PaymentHistoryEntry{
			ID:            uuid.New(),
			TransactionID: transactionID,
			Action:        model.HistoryCancelled,
			PerformedBy:   userID,
		})
		if err != nil {
			return err
		}

		rec.Status = model.StatusCancelled
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentDecisions.WithLabelValues("cancelled").Inc()
	s.notifier.TransactionFinalized(ctx, updated)
	return updated, nil
}

// GetForUser retrieves a transaction owned by the caller.
// Returns ErrTransactionNotFound for unknown ids and for other users' records.
func (s *PaymentService) GetForUser(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error) {
	t, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil || t.UserID != userID {
		return nil, ErrTransactionNotFound
	}
	return t, nil
}

// ListForUser returns the caller's transactions, newest first.
func (s *PaymentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error) {
	return s.txRepo.ListByUser(ctx, userID)
}

// ListByVerificationStatus returns the admin review queue.
func (s *PaymentService) ListByVerificationStatus(ctx context.Context, vs model.VerificationStatus) ([]model.PaymentTransaction, error) {
	return s.txRepo.ListByVerificationStatus(ctx, vs)
}

// History returns a transaction's append-only audit trail.
// Returns ErrTransactionNotFound if the transaction doesn't exist.
func (s *PaymentService) History(ctx context.Context, transactionID uuid.UUID) ([]model.PaymentHistoryEntry, error) {
	t, err := s.txRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil {
		return nil, ErrTransactionNotFound
	}
	return s.histRepo.ListByTransaction(ctx, transactionID)
}
