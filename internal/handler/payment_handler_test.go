package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnloop/payments/internal/middleware"
	"github.com/learnloop/payments/internal/model"
	"github.com/learnloop/payments/internal/service"
	"github.com/learnloop/payments/internal/validator"
)

// mockPaymentService is a mock implementation of PaymentServiceInterface.
type mockPaymentService struct {
	submitFn      func(ctx context.Context, userID uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error)
	cancelFn      func(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error)
	getForUserFn  func(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error)
	listForUserFn func(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error)
}

func (m *mockPaymentService) Submit(ctx context.Context, userID uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, userID, req)
	}
	return nil, nil
}

func (m *mockPaymentService) Cancel(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error) {
	if m.cancelFn != nil {
		return m.cancelFn(ctx, transactionID, userID)
	}
	return nil, nil
}

func (m *mockPaymentService) GetForUser(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error) {
	if m.getForUserFn != nil {
		return m.getForUserFn(ctx, transactionID, userID)
	}
	return nil, nil
}

func (m *mockPaymentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.PaymentTransaction, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

// mockProofSigner is a mock implementation of ProofSigner.
type mockProofSigner struct {
	presignFn func(userID uuid.UUID, filename, contentType string) (string, string, error)
}

func (m *mockProofSigner) PresignUpload(userID uuid.UUID, filename, contentType string) (string, string, error) {
	if m.presignFn != nil {
		return m.presignFn(userID, filename, contentType)
	}
	return "", "", nil
}

// asUser injects the authenticated caller the way Auth would.
func asUser(userID uuid.UUID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(middleware.LocalUserID, userID)
		return c.Next()
	}
}

func setupPaymentApp(userID uuid.UUID, svc *mockPaymentService, proofs ProofSigner) *fiber.App {
	app := fiber.New()
	h := NewPaymentHandler(svc, proofs, validator.New())
	api := app.Group("/api", asUser(userID))
	api.Post("/payments", h.Submit)
	api.Get("/payments/:id", h.Get)
	api.Get("/payments", h.List)
	api.Post("/payments/:id/cancel", h.Cancel)
	api.Post("/payments/proof-url", h.ProofURL)
	return app
}

func submitBody(targetID uuid.UUID) string {
	return fmt.Sprintf(`{
		"target_type": "course",
		"target_id": %q,
		"payment_method": "bank_transfer",
		"payment_reference": "TRX-001",
		"proof_ref": "s3://proofs/receipt.jpg"
	}`, targetID)
}

func TestPaymentSubmit_Success(t *testing.T) {
	userID := uuid.New()
	targetID := uuid.New()
	transactionID := uuid.New()

	svc := &mockPaymentService{
		submitFn: func(ctx context.Context, uid uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
			assert.Equal(t, userID, uid)
			return &model.PaymentTransaction{
				ID:          transactionID,
				UserID:      uid,
				TotalAmount: 9000,
				Status:      model.StatusPending,
			}, nil
		},
	}
	app := setupPaymentApp(userID, svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(submitBody(targetID)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result model.PaymentTransaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, transactionID, result.ID)
	assert.Equal(t, model.StatusPending, result.Status)
}

func TestPaymentSubmit_MissingProofRef(t *testing.T) {
	app := setupPaymentApp(uuid.New(), &mockPaymentService{}, nil)

	body := fmt.Sprintf(`{
		"target_type": "course",
		"target_id": %q,
		"payment_method": "bank_transfer",
		"payment_reference": "TRX-001"
	}`, uuid.New())
	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "invalid request: ProofRef is required", result["error"])
}

func TestPaymentSubmit_DuplicateSubmission(t *testing.T) {
	svc := &mockPaymentService{
		submitFn: func(ctx context.Context, uid uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
			return nil, service.ErrDuplicateSubmission
		},
	}
	app := setupPaymentApp(uuid.New(), svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(submitBody(uuid.New())))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestPaymentSubmit_AmountOutOfRange(t *testing.T) {
	svc := &mockPaymentService{
		submitFn: func(ctx context.Context, uid uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
			return nil, service.ErrAmountOutOfRange
		},
	}
	app := setupPaymentApp(uuid.New(), svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(submitBody(uuid.New())))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPaymentSubmit_ExpiredPromo(t *testing.T) {
	svc := &mockPaymentService{
		submitFn: func(ctx context.Context, uid uuid.UUID, req *model.SubmitPaymentRequest) (*model.PaymentTransaction, error) {
			return nil, service.ErrPromoExpired
		},
	}
	app := setupPaymentApp(uuid.New(), svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments", bytes.NewBufferString(submitBody(uuid.New())))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusGone, resp.StatusCode)
}

func TestPaymentCancel_NotFound(t *testing.T) {
	svc := &mockPaymentService{
		cancelFn: func(ctx context.Context, transactionID, userID uuid.UUID) (*model.PaymentTransaction, error) {
			return nil, service.ErrTransactionNotFound
		},
	}
	app := setupPaymentApp(uuid.New(), svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/"+uuid.NewString()+"/cancel", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPaymentCancel_InvalidID(t *testing.T) {
	app := setupPaymentApp(uuid.New(), &mockPaymentService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/not-a-uuid/cancel", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestPaymentList_Success(t *testing.T) {
	userID := uuid.New()
	svc := &mockPaymentService{
		listForUserFn: func(ctx context.Context, uid uuid.UUID) ([]model.PaymentTransaction, error) {
			return []model.PaymentTransaction{
				{ID: uuid.New(), UserID: uid},
				{ID: uuid.New(), UserID: uid},
			}, nil
		},
	}
	app := setupPaymentApp(userID, svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string][]model.PaymentTransaction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Len(t, result["payments"], 2)
}

func TestPaymentProofURL_Success(t *testing.T) {
	userID := uuid.New()
	proofs := &mockProofSigner{
		presignFn: func(uid uuid.UUID, filename, contentType string) (string, string, error) {
			assert.Equal(t, userID, uid)
			return "https://bucket.s3.amazonaws.com/signed", "s3://bucket/payment-proofs/x.jpg", nil
		},
	}
	app := setupPaymentApp(userID, &mockPaymentService{}, proofs)

	body := `{"filename": "receipt.jpg", "content_type": "image/jpeg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/proof-url", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result model.ProofUploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "https://bucket.s3.amazonaws.com/signed", result.UploadURL)
	assert.Equal(t, "s3://bucket/payment-proofs/x.jpg", result.ProofRef)
}

func TestPaymentProofURL_StoreNotConfigured(t *testing.T) {
	app := setupPaymentApp(uuid.New(), &mockPaymentService{}, nil)

	body := `{"filename": "receipt.jpg", "content_type": "image/jpeg"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/proof-url", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
