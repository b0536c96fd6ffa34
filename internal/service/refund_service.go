package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/payments/internal/metrics"
	"github.com/learnloop/payments/internal/model"
)

// RefundRepositoryInterface defines the interface for refund data access.
type RefundRepositoryInterface interface {
	Insert(ctx context.Context, rr *model.RefundRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.RefundRequest, error)
	Decide(ctx context.Context, id uuid.UUID, status model.RefundStatus, decidedBy uuid.UUID, notes string, decidedAt time.Time) (bool, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.RefundRequest, error)
}

// TransactionReaderInterface is the slice of the ledger refunds need.
type TransactionReaderInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.PaymentTransaction, error)
}

// RefundService creates and resolves refund requests against settled
// transactions. Approving a refund does not revoke enrollment; that is an
// explicit external action.
type RefundService struct {
	repo RefundRepositoryInterface
	txs  TransactionReaderInterface
	now  func() time.Time
}

// NewRefundService creates a new RefundService with the given repositories.
func NewRefundService(repo RefundRepositoryInterface, txs TransactionReaderInterface) *RefundService {
	return &RefundService{repo: repo, txs: txs, now: time.Now}
}

// Create files a refund request against a settled transaction.
// Returns:
//   - ErrTransactionNotFound for unknown ids and other users' transactions
//   - ErrRefundPrecondition unless the transaction is (completed, approved)
//   - ErrInvalidRefundAmount if amount <= 0 or exceeds the paid amount
func (s *RefundService) Create(ctx context.Context, requesterID uuid.UUID, req *model.CreateRefundRequest) (*model.RefundRequest, error) {
	if req == nil || req.Amount == nil {
		return nil, ErrInvalidRequest
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	t, err := s.txs.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	if t == nil || t.UserID != requesterID {
		return nil, ErrTransactionNotFound
	}
	if !t.Settled() {
		return nil, ErrRefundPrecondition
	}
	if *req.Amount <= 0 || *req.Amount > t.Amount {
		return nil, ErrInvalidRefundAmount
	}

	rr := &model.RefundRequest{
		ID:            uuid.New(),
		TransactionID: transactionID,
		RequestedBy:   requesterID,
		RefundAmount:  *req.Amount,
		Reason:        req.Reason,
		Status:        model.RefundPending,
	}
	if err := s.repo.Insert(ctx, rr); err != nil {
		return nil, err
	}

	metrics.RefundRequests.WithLabelValues("created").Inc()
	return rr, nil
}

// Decide resolves a pending refund request; approved and rejected are both
// terminal. The storage write is guarded on the current status, so a second
// decision fails rather than silently overwriting the first.
// Returns:
//   - ErrRefundNotFound if the refund request doesn't exist
//   - ErrInvalidStateTransition if it is already decided
func (s *RefundService) Decide(ctx context.Context, refundID, adminID uuid.UUID, approve bool, notes string) (*model.RefundRequest, error) {
	status := model.RefundRejected
	if approve {
		status = model.RefundApproved
	}

	decidedAt := s.now()
	decided, err := s.repo.Decide(ctx, refundID, status, adminID, notes, decidedAt)
	if err != nil {
		return nil, err
	}
	if !decided {
		// Distinguish a missing request from a re-decision attempt
		rr, err := s.repo.GetByID(ctx, refundID)
		if err != nil {
			return nil, fmt.Errorf("get refund request: %w", err)
		}
		if rr == nil {
			return nil, ErrRefundNotFound
		}
		return nil, ErrInvalidStateTransition
	}

	rr, err := s.repo.GetByID(ctx, refundID)
	if err != nil {
		return nil, fmt.Errorf("get refund request: %w", err)
	}
	if rr == nil {
		return nil, ErrRefundNotFound
	}

	metrics.RefundRequests.WithLabelValues(string(status)).Inc()
	return rr, nil
}

// ListByTransaction returns refund requests filed against a transaction.
func (s *RefundService) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]model.RefundRequest, error) {
	return s.repo.ListByTransaction(ctx, transactionID)
}
